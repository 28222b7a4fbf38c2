package chat

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	Greeting = "Hola! Soy tu asistente financiero 'Smart Finance'. Soy un asistente cognitvo, una IA que puede dar explicaciones simples para contadores. No necesitas saber SQL, ni saber programar ni conocer sobre bases de datos. Yo me encargaré por ti y te dare la información que necesitas de una forma clara, sin tantas vueltas y explicada en lenguaje natural. ¿Qué consulta tienes?"

	MessageNoModel   = "No hay modelo disponible."
	MessageNoDataset = "Sube la base de datos."
)

// Turn is one displayed message. SQL is set only on assistant turns that
// executed a query.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	SQL       string    `json:"sql,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (t Turn) HasSQL() bool {
	return t.SQL != ""
}
