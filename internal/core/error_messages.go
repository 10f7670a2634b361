// Package core provides the business logic for bulk contact dispatch.
//
// # Error Codes Reference
//
// This file maps request-level errors to user-facing messages with codes
// for support reference. Per-line problems never go through this table;
// they are reported inside the Report.
//
// # Transport Errors (TRN001-TRN099)
//
//	TRN001 - Transport not ready: the WhatsApp client is not connected yet
//	         Action: Connect the gateway (scan the QR code) and try again
//	         Patterns: "transport not ready"
//
//	TRN002 - Transport disconnected: the session dropped while sending
//	         Action: Reconnect the gateway and try again
//	         Patterns: "transport not connected"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: upload exceeds the configured limit
//	          Action: Split the contact list into smaller files
//	          Patterns: "file too large", "request body too large"
//
//	FILE004 - No file: no contact file was sent
//	          Action: Select a CSV file to upload
//	          Patterns: "no file provided"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Missing fields: name or phone missing in a single send
//	         Patterns: "name and phone are required"
//
//	REQ002 - Invalid body: request body is not the expected JSON
//	         Patterns: "invalid request body"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: too many uploads dispatching
//	         Patterns: "too many uploads"
//
//	UPL004 - Request cancelled
//	         Patterns: "context canceled"
//
//	UPL005 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check application logs for
// the original technical error.
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Transport
	{
		pattern: "transport not ready",
		msg: UserMessage{
			Message: "Serviço indisponível. Cliente WhatsApp não está pronto.",
			Action:  "Conecte o WhatsApp (escaneie o QR code) e tente novamente",
			Code:    "TRN001",
		},
	},
	{
		pattern: "transport not connected",
		msg: UserMessage{
			Message: "A conexão com o WhatsApp caiu durante o envio",
			Action:  "Reconecte o WhatsApp e tente novamente",
			Code:    "TRN002",
		},
	},
	{
		pattern: "send to ",
		msg: UserMessage{
			Message: "Não foi possível enviar a mensagem",
			Action:  "Verifique se o número tem WhatsApp e tente novamente",
			Code:    "TRN003",
		},
	},

	// File
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "Arquivo excede o tamanho máximo permitido",
			Action:  "Divida a lista de contatos em arquivos menores",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "Arquivo excede o tamanho máximo permitido",
			Action:  "Divida a lista de contatos em arquivos menores",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "Nenhum arquivo foi enviado",
			Action:  "Selecione um arquivo CSV",
			Code:    "FILE004",
		},
	},

	// Request
	{
		pattern: "name and phone are required",
		msg: UserMessage{
			Message: `Campos "name" e "phone" são obrigatórios.`,
			Action:  `Envie um JSON com "name" e "phone"`,
			Code:    "REQ001",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "Erro nos dados fornecidos.",
			Action:  `Envie um JSON com "name" e "phone"`,
			Code:    "REQ002",
		},
	},

	// Upload
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "Sistema ocupado com outros envios",
			Action:  "Aguarde um momento e tente novamente",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "A requisição foi cancelada",
			Action:  "Tente novamente",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "A requisição excedeu o tempo limite",
			Action:  "Envie um arquivo menor ou tente novamente",
			Code:    "UPL005",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "Ocorreu um erro inesperado",
	Action:  "Tente novamente ou contate o suporte",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
//
//	msg := MapError(fmt.Errorf("dispatch: %w", ErrTransportNotReady))
//	// msg.Code == "TRN001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates "Message (Code: XXX). Action" for display.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
