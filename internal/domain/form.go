package domain

import (
	"encoding/json"
	"maps"
)

// Form field names as sent to the delivery endpoint.
const (
	FieldNome     = "nome"
	FieldEmail    = "email"
	FieldTelefone = "telefone"
	FieldPrograma = "programa"
	FieldMensagem = "mensagem"
)

// FormValues holds what a visitor typed into a contact form.
type FormValues struct {
	Nome     string `form:"nome"     json:"nome"`
	Email    string `form:"email"    json:"email"`
	Telefone string `form:"telefone" json:"telefone"`
	Programa string `form:"programa" json:"programa"`
	Mensagem string `form:"mensagem" json:"mensagem"`
}

// FormPayload is the outbound submission: form values merged with the
// formatted attribution mapping.
type FormPayload struct {
	Values      FormValues
	Attribution map[string]string
}

// Fields returns the flat key/value view that is transmitted.
func (p FormPayload) Fields() map[string]string {
	fields := make(map[string]string, len(p.Attribution)+5)
	fields[FieldNome] = p.Values.Nome
	fields[FieldEmail] = p.Values.Email
	fields[FieldTelefone] = p.Values.Telefone
	fields[FieldPrograma] = p.Values.Programa
	fields[FieldMensagem] = p.Values.Mensagem
	maps.Copy(fields, p.Attribution)
	return fields
}

// MarshalJSON encodes the payload as a single flat object.
func (p FormPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Fields())
}
