// Package messages holds the user-facing strings shown by the contact form
// and the attribution summary, in Brazilian Portuguese and English.
package messages

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	RateLimited      = "submission.rate_limited"
	NotConfigured    = "submission.not_configured"
	RequiredFields   = "submission.required_fields"
	InvalidEmail     = "submission.invalid_email"
	InvalidPhone     = "submission.invalid_phone"
	Sent             = "submission.sent"
	TransportFailed  = "submission.transport_failed"
	Unexpected       = "submission.unexpected"
	InFlight         = "submission.in_flight"
	SubmitLabel      = "submission.label"
	SubmitBusyLabel  = "submission.label_busy"
	SummarySource    = "summary.source"
	SummaryMedium    = "summary.medium"
	SummaryCampaign  = "summary.campaign"
	SummaryTerm      = "summary.term"
	SummaryContent   = "summary.content"
	SummaryDirect    = "summary.direct"
	SummarySeparator = "summary.separator"
)

// Default is the language used when nothing better matches.
var Default = language.BrazilianPortuguese

var supported = []language.Tag{language.BrazilianPortuguese, language.English}

var matcher = language.NewMatcher(supported)

var entries = map[language.Tag]map[string]string{
	language.BrazilianPortuguese: {
		RateLimited:      "Você está enviando mensagens muito rapidamente. Por favor, aguarde %d segundos antes de tentar novamente.",
		NotConfigured:    "Erro de configuração. Por favor, entre em contato pelo WhatsApp.",
		RequiredFields:   "Por favor, preencha todos os campos obrigatórios.",
		InvalidEmail:     "Por favor, insira um endereço de e-mail válido.",
		InvalidPhone:     "Por favor, insira um telefone válido com DDD.",
		Sent:             "Mensagem enviada com sucesso! Retornaremos em breve.",
		TransportFailed:  "Erro ao enviar mensagem. Por favor, tente novamente ou entre em contato pelo WhatsApp.",
		Unexpected:       "Ocorreu um erro inesperado. Por favor, entre em contato pelo WhatsApp.",
		InFlight:         "Sua mensagem já está sendo enviada. Aguarde a confirmação.",
		SubmitLabel:      "Enviar mensagem",
		SubmitBusyLabel:  "Enviando...",
		SummarySource:    "Origem: %s",
		SummaryMedium:    "Mídia: %s",
		SummaryCampaign:  "Campanha: %s",
		SummaryTerm:      "Termo: %s",
		SummaryContent:   "Conteúdo: %s",
		SummaryDirect:    "Acesso direto (sem UTM)",
		SummarySeparator: " | ",
	},
	language.English: {
		RateLimited:     "You are sending messages too quickly. Please wait %d seconds before trying again.",
		NotConfigured:   "Configuration error. Please contact us on WhatsApp.",
		RequiredFields:  "Please fill in all required fields.",
		InvalidEmail:    "Please enter a valid e-mail address.",
		InvalidPhone:    "Please enter a valid phone number including the area code.",
		Sent:            "Message sent successfully! We will get back to you soon.",
		TransportFailed: "Could not send your message. Please try again or contact us on WhatsApp.",
		Unexpected:      "An unexpected error occurred. Please contact us on WhatsApp.",
		InFlight:        "Your message is already being sent. Please wait for the confirmation.",
		SubmitLabel:     "Send message",
		SubmitBusyLabel: "Sending...",
		SummarySource:   "Source: %s",
		SummaryMedium:   "Medium: %s",
		SummaryCampaign: "Campaign: %s",
		SummaryTerm:     "Term: %s",
		SummaryContent:  "Content: %s",
		SummaryDirect:   "Direct access (no UTM)",
	},
}

var cat = buildCatalog()

// buildCatalog registers every translation. The default strings are also
// stored under the root language so lookups for any tag end there.
func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(Default))
	set := func(tag language.Tag, msgs map[string]string) {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic("messages: " + err.Error())
			}
		}
	}
	for tag, msgs := range entries {
		set(tag, msgs)
	}
	set(language.Und, entries[Default])
	return b
}

// Printer returns a printer for tag. Keys missing in tag's translation fall
// back to Brazilian Portuguese.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(Match(tag), message.Catalog(cat))
}

// Match returns the supported language closest to the given preferences.
func Match(preferred ...language.Tag) language.Tag {
	if len(preferred) == 0 {
		return Default
	}
	_, idx, confidence := matcher.Match(preferred...)
	if confidence == language.No {
		return Default
	}
	return supported[idx]
}

// FromAcceptLanguage parses an Accept-Language header. Malformed or empty
// headers yield Default.
func FromAcceptLanguage(header string) language.Tag {
	if header == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return Default
	}
	return Match(tags...)
}
