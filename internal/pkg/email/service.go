package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
)

// Sender delivers a rendered message
type Sender interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

// Service renders alert templates and hands them to a Sender
type Service struct {
	sender       Sender
	templates    map[string]*template.Template
	baseTemplate *template.Template
}

// NewService creates email service
func NewService(sender Sender) *Service {
	s := &Service{
		sender:       sender,
		templates:    make(map[string]*template.Template),
		baseTemplate: template.Must(template.New("base").Parse(BaseTemplate)),
	}

	for name, content := range map[string]string{
		TemplateUnderperformer: UnderperformerTemplate,
		TemplateOptimization:   OptimizationTemplate,
	} {
		s.templates[name] = template.Must(template.New(name).Parse(content))
	}
	return s
}

// SendTemplate renders templateName with data and sends it synchronously
func (s *Service) SendTemplate(ctx context.Context, to, subject, templateName string, data interface{}) error {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return fmt.Errorf("template %s not found", templateName)
	}

	var contentBuf bytes.Buffer
	if err := tmpl.Execute(&contentBuf, data); err != nil {
		return err
	}

	var htmlBuf bytes.Buffer
	if err := s.baseTemplate.Execute(&htmlBuf, map[string]interface{}{
		"Content": template.HTML(contentBuf.String()),
	}); err != nil {
		return err
	}

	return s.sender.Send(ctx, &EmailMessage{
		To:          to,
		Subject:     subject,
		HTMLContent: htmlBuf.String(),
	})
}
