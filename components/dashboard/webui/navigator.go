package webui

import (
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-leads-dashboard/pkg/session"
)

// LogNavigator records client-driven navigation. A browser session follows on its next
// request, when the guard redirects it to the resolved route.
func LogNavigator(log logrus.FieldLogger) session.Navigator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return session.NavigatorFunc(func(route string) {
		log.WithField("route", route).Info("session ended, redirecting")
	})
}
