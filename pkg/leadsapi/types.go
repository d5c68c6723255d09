package leadsapi

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// LoginResponse is returned by POST /api/auth/login.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Identity is returned by GET /api/auth/me.
type Identity struct {
	Username string `json:"username"`
}

// KPIs aggregates lead counters for a base (or all bases).
type KPIs struct {
	TotalLeads       int     `json:"total_leads"`
	Contactados      int     `json:"contactados"`
	NoContactados    int     `json:"no_contactados"`
	ContactoEfectivo int     `json:"contacto_efectivo"`
	Matriculados     int     `json:"matriculados"`
	AvgToques        float64 `json:"avg_toques"`
}

// FunnelStage is one ordered funnel step. Each stage is a subset of the previous one.
type FunnelStage struct {
	Stage string  `json:"stage"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// TrendPoint is a single period bucket. Period is formatted YYYY-MM-DD.
type TrendPoint struct {
	Period       string `json:"period"`
	Leads        int    `json:"leads"`
	Efectivos    int    `json:"efectivos"`
	Matriculados int    `json:"matriculados"`
}

// MedioStat groups leads by acquisition channel.
type MedioStat struct {
	Medio     string `json:"medio"`
	Total     int    `json:"total"`
	Efectivos int    `json:"efectivos"`
}

// ProgramaStat groups leads by program of interest.
type ProgramaStat struct {
	Programa  string `json:"programa"`
	Total     int    `json:"total"`
	Efectivos int    `json:"efectivos"`
}

// AgentStat is one leaderboard row. The backend sorts rows by TotalLeads descending.
type AgentStat struct {
	Usuario          string `json:"usuario"`
	TotalLeads       int    `json:"total_leads"`
	Contactados      int    `json:"contactados"`
	ContactoEfectivo int    `json:"contacto_efectivo"`
	NoContactados    int    `json:"no_contactados"`
	Matriculados     int    `json:"matriculados"`
}

// Management results a lead can carry.
const (
	ResultNoContactado     = "No Contactado"
	ResultContactado       = "Contactado"
	ResultContactoEfectivo = "Contacto Efectivo"
)

// Lead is a read-only lead record.
type Lead struct {
	ID               FlexString `json:"idinterno"`
	Nombre           string     `json:"nombre"`
	Email            string     `json:"email"`
	Telefono         string     `json:"telefono"`
	Medio            string     `json:"medio"`
	ProgramaInteres  string     `json:"programa_interes"`
	ResultadoGestion string     `json:"resultado_gestion"`
	Toques           FlexInt    `json:"toques"`
	FechaLead        string     `json:"fecha_lead"`
	FechaUltGestion  string     `json:"fecha_ult_gestion"`
	Base             string     `json:"base"`
}

// LeadsQuery filters the paginated leads listing. Zero values are omitted.
type LeadsQuery struct {
	Page      int
	PerPage   int
	Search    string
	Medio     string
	Resultado string
	Base      string
}

// LeadsPage is the page envelope returned by GET /api/dashboard/leads.
type LeadsPage struct {
	Data    []Lead `json:"data"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// Base is a named partition of the lead dataset.
type Base struct {
	ID          FlexString `json:"iddatabase"`
	Descripcion string     `json:"descripcion"`
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one transcript entry.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the AI reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// Insight is a generated observation card.
type Insight struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Prediction is a forecast row.
type Prediction struct {
	Period             string  `json:"period"`
	PredictedLeads     float64 `json:"predicted_leads"`
	PredictedEfectivos float64 `json:"predicted_efectivos"`
	Confidence         float64 `json:"confidence"`
}

// FlexString accepts JSON strings and numbers.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// FlexInt accepts JSON numbers and numeric strings; anything else decodes to 0.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*f = FlexInt(int(v))
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexInt(int(n))
	default:
		*f = 0
	}
	return nil
}
