package mailer

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

// Confirmation holds everything the confirmation email needs. The same
// rendered body is sent to the client and to the studio owner; only the
// recipient and subject differ.
type Confirmation struct {
	StudioName  string
	ClientName  string
	Date        string
	Time        string
	DurationMin int
	Phone       string
	ServiceName string
	EventLink   string
	DepositLine string
	BankLines   []string
	WhatsAppURL string
}

// ClientSubject brands the subject line with the service name.
func (c Confirmation) ClientSubject() string {
	return "Confirmacion de reserva - " + c.ServiceName
}

// OwnerSubject frames the owner's copy as a new appointment alert.
func (c Confirmation) OwnerSubject() string {
	return fmt.Sprintf("Nueva cita - %s (%s)", c.ServiceName, c.ClientName)
}

// WhatsAppLink builds a wa.me deep link prefilled with the proof-of-payment
// message for the given client.
func WhatsAppLink(phone, clientName string) string {
	msg := "Hola, te envio el comprobante de reserva. Mi nombre es " + clientName
	return "https://wa.me/" + phone + "?text=" + url.QueryEscape(msg)
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<div style="font-family:Arial,sans-serif;color:#333;line-height:1.6">
  <div style="max-width:560px;margin:auto;border:1px solid #f2d7e2;border-radius:12px;overflow:hidden">
    <div style="background:#fef0f5;padding:16px 20px">
      <h2 style="margin:0;color:#d63384">Confirmacion de reserva</h2>
    </div>
    <div style="padding:20px">
      <p>Hola <b>{{.ClientName}}</b>, tu cita ha sido registrada con exito.</p>
      <table style="width:100%;border-collapse:collapse;font-size:14px;margin:12px 0">
        <tr><td style="padding:6px 0;width:140px"><b>Servicio:</b></td><td>{{.ServiceName}}</td></tr>
        <tr><td style="padding:6px 0"><b>Fecha:</b></td><td>{{.Date}}</td></tr>
        <tr><td style="padding:6px 0"><b>Hora:</b></td><td>{{.Time}}</td></tr>
        <tr><td style="padding:6px 0"><b>Duracion:</b></td><td>{{.DurationMin}} minutos</td></tr>
        <tr><td style="padding:6px 0"><b>Telefono:</b></td><td>{{.Phone}}</td></tr>
        {{if .EventLink}}<tr><td style="padding:6px 0"><b>Evento:</b></td><td><a href="{{.EventLink}}">Abrir en Google Calendar</a></td></tr>{{end}}
      </table>
      <hr style="border:none;border-top:1px solid #eee;margin:16px 0">
      <h3 style="margin:10px 0 6px">Condiciones de reserva</h3>
      <p>{{.DepositLine}}</p>
      <p>Transferir a:</p>
      <ul style="margin:0 0 10px 18px;padding:0">{{range .BankLines}}<li>{{.}}</li>{{end}}</ul>
      <p>Envianos el comprobante por WhatsApp:
        <a href="{{.WhatsAppURL}}" style="color:#d63384;font-weight:bold;text-decoration:none">Enviar comprobante</a>
      </p>
      <p>Si faltas a tu hora, no hay devolucion del abono. Puedes reagendar con el mismo abono avisando minimo 24 horas antes.</p>
      <p style="font-size:12px;color:#666;margin-top:18px">
        Gracias por tu preferencia.<br>{{.StudioName}}
      </p>
    </div>
  </div>
</div>`))

// RenderConfirmation renders the confirmation HTML. It is a pure function
// of its input: identical confirmations render to identical documents.
func RenderConfirmation(c Confirmation) (string, error) {
	var sb strings.Builder
	if err := confirmationTmpl.Execute(&sb, c); err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return sb.String(), nil
}
