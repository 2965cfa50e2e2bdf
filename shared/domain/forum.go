package domain

type ForumRecord struct {
	Id          ForumId   `json:"idforo"`
	Title       string    `json:"titulo"`
	Description string    `json:"descripcion,omitempty"`
	AccountId   AccountId `json:"idcuenta,omitempty"`
	CreatedAt   Timestamp `json:"fecha_creacion"`
}
