package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/sigqms/doccontrol/models"
	"github.com/sigqms/doccontrol/objectstore"
	"github.com/wneessen/go-mail"
)

// SMTPConfig connection settings for the outgoing mail transport
type SMTPConfig struct {
	// Host SMTP server host. An empty host leaves the sink unconfigured, and
	// every delivery becomes a logged no-op.
	Host string `json:"host"`
	// Port SMTP server port
	Port int `json:"port"`
	// Username SMTP auth user
	Username string `json:"username"`
	// Password SMTP auth password
	Password string `json:"-"`
	// From sender address
	From string `json:"from"`
	// QualityTeam addresses receiving document and proposal notices
	QualityTeam []string `json:"quality_team"`
}

// Configured whether a usable transport was provided
func (c SMTPConfig) Configured() bool {
	return c.Host != ""
}

var documentPublishedBody = template.Must(template.New("documentPublished").Parse(
	`Se ha registrado un nuevo documento en el sistema de gestión.

Código:  {{.Code}}
Nombre:  {{.Name}}
Proceso: {{.Process}}
Versión: {{.Version}}
`))

var proposalSubmittedBody = template.Must(template.New("proposalSubmitted").Parse(
	`Se ha recibido una propuesta de cambio pendiente de revisión.

Documento:         {{.Document.Code}} – {{.Document.Name}}
Versión propuesta: {{.Changes.Version}}
Solicitante:       {{.Proposal.Proposer}}
Justificación:     {{.Proposal.Justification}}
{{if .Changes.Attachment.StoreRef}}
Se adjunta el documento propuesto.
{{end}}`))

var proposalReviewedBody = template.Must(template.New("proposalReviewed").Parse(
	`La propuesta de cambio sobre {{.Document.Code}} – {{.Document.Name}} fue {{.Verdict}}.

Revisor:      {{.Proposal.Reviewer}}
Comentarios:  {{.Proposal.ReviewComments}}
`))

var entryApprovalRequestedBody = template.Must(template.New("entryApprovalRequested").Parse(
	`Una entrada del listado maestro está pendiente de aprobación.

Código:      {{.Code}}
Nombre:      {{.Name}}
Proceso:     {{.Process}}
Responsable: {{.Responsible}}
`))

var entryStatusChangedBody = template.Must(template.New("entryStatusChanged").Parse(
	`La entrada {{.Code}} – {{.Name}} del listado maestro cambió de estado.

Estado: {{.Status}}
Motivo: {{.ChangeReason}}
`))

var actionAssignedBody = template.Must(template.New("actionAssigned").Parse(
	`Se le ha asignado una acción de mejora.

Consecutivo: {{.Consecutive}}
Proceso:     {{.Process}}
Hallazgo:    {{.Finding}}
Acción:      {{.ActionDescription}}
Fecha propuesta: {{.ProposedDate.Format "2006-01-02"}}
`))

// smtpSinkImpl implements NotificationSink over SMTP
type smtpSinkImpl struct {
	goutils.Component
	config    SMTPConfig
	directory *Directory
	store     objectstore.ObjectStore
}

// noticeAttachment one file attached to an outgoing notice
type noticeAttachment struct {
	name    string
	payload []byte
}

/*
NewSMTPSink define a notification sink delivering over SMTP

Delivery failures are logged but never propagated to the caller; a notice is
side information, and losing one must not fail the operation that raised it.

	@param config SMTPConfig - transport settings
	@param directory *Directory - recipient directory for per-party notices
	@param store objectstore.ObjectStore - object store holding proposed
	    attachments. A nil store sends notices without them.
	@returns new notification sink
*/
func NewSMTPSink(
	config SMTPConfig, directory *Directory, store objectstore.ObjectStore,
) (NotificationSink, error) {
	logTags := log.Fields{"package": "doccontrol", "module": "notify", "component": "smtp-sink"}

	if directory == nil {
		directory = NewDirectory(nil)
	}

	return &smtpSinkImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		config:    config,
		directory: directory,
		store:     store,
	}, nil
}

/*
DocumentPublished a new controlled document entered the system

	@param ctx context.Context - execution context
	@param document models.DocumentRecord - the new document
*/
func (s *smtpSinkImpl) DocumentPublished(
	ctx context.Context, document models.DocumentRecord,
) error {
	var body bytes.Buffer
	if err := documentPublishedBody.Execute(&body, document); err != nil {
		log.WithError(err).WithFields(s.LogTags).Error("Failed to render document notice")
		return nil
	}
	s.deliver(
		ctx,
		s.config.QualityTeam,
		fmt.Sprintf("Nuevo documento registrado: %s", document.Code),
		body.String(),
	)
	return nil
}

/*
ProposalSubmitted a change proposal awaits review

	@param ctx context.Context - execution context
	@param document models.DocumentRecord - the target document
	@param proposal models.Proposal - the submitted proposal
*/
func (s *smtpSinkImpl) ProposalSubmitted(
	ctx context.Context, document models.DocumentRecord, proposal models.Proposal,
) error {
	changes, err := proposal.ParseChangeSet()
	if err != nil {
		log.WithError(err).WithFields(s.LogTags).Error("Failed to read proposal change set")
	}

	var body bytes.Buffer
	err = proposalSubmittedBody.Execute(&body, struct {
		Document models.DocumentRecord
		Proposal models.Proposal
		Changes  models.ProposalChangeSet
	}{Document: document, Proposal: proposal, Changes: changes})
	if err != nil {
		log.WithError(err).WithFields(s.LogTags).Error("Failed to render proposal notice")
		return nil
	}
	s.deliver(
		ctx,
		s.config.QualityTeam,
		fmt.Sprintf("Propuesta de cambio pendiente: %s", document.Code),
		body.String(),
		s.proposedAttachment(ctx, changes)...,
	)
	return nil
}

// proposedAttachment fetch the proposed replacement attachment for a notice
func (s *smtpSinkImpl) proposedAttachment(
	ctx context.Context, changes models.ProposalChangeSet,
) []noticeAttachment {
	if !changes.Attachment.Present() || s.store == nil {
		return nil
	}
	payload, err := s.store.Download(ctx, changes.Attachment.StoreRef)
	if err != nil {
		log.WithError(err).
			WithFields(s.LogTags).
			WithField("ref", changes.Attachment.StoreRef).
			Warn("Proposed attachment fetch failed, sending notice without it")
		return nil
	}
	return []noticeAttachment{{name: changes.Attachment.Name, payload: payload}}
}

/*
ProposalReviewed a change proposal reached a terminal status

	@param ctx context.Context - execution context
	@param document models.DocumentRecord - the target document
	@param proposal models.Proposal - the reviewed proposal
*/
func (s *smtpSinkImpl) ProposalReviewed(
	ctx context.Context, document models.DocumentRecord, proposal models.Proposal,
) error {
	verdict := "rechazada"
	if proposal.Status == models.ProposalStatusApproved {
		verdict = "aprobada"
	}

	var body bytes.Buffer
	err := proposalReviewedBody.Execute(&body, struct {
		Document models.DocumentRecord
		Proposal models.Proposal
		Verdict  string
	}{Document: document, Proposal: proposal, Verdict: verdict})
	if err != nil {
		log.WithError(err).WithFields(s.LogTags).Error("Failed to render review notice")
		return nil
	}

	recipients := s.config.QualityTeam
	if address, known := s.directory.LookupByName(proposal.Proposer); known {
		recipients = append(append([]string{}, recipients...), address)
	}
	s.deliver(
		ctx,
		recipients,
		fmt.Sprintf("Propuesta de cambio %s: %s", verdict, document.Code),
		body.String(),
	)
	return nil
}

/*
EntryApprovalRequested a master list entry awaits approval

	@param ctx context.Context - execution context
	@param entry models.RegistryEntry - the entry pending approval
*/
func (s *smtpSinkImpl) EntryApprovalRequested(
	ctx context.Context, entry models.RegistryEntry,
) error {
	var body bytes.Buffer
	if err := entryApprovalRequestedBody.Execute(&body, entry); err != nil {
		log.WithError(err).WithFields(s.LogTags).Error("Failed to render entry notice")
		return nil
	}
	s.deliver(
		ctx,
		s.config.QualityTeam,
		fmt.Sprintf("Entrada pendiente de aprobación: %s", entry.Code),
		body.String(),
	)
	return nil
}

/*
EntryStatusChanged a master list entry was approved or rejected

	@param ctx context.Context - execution context
	@param entry models.RegistryEntry - the entry after the change
*/
func (s *smtpSinkImpl) EntryStatusChanged(
	ctx context.Context, entry models.RegistryEntry,
) error {
	var body bytes.Buffer
	if err := entryStatusChangedBody.Execute(&body, entry); err != nil {
		log.WithError(err).WithFields(s.LogTags).Error("Failed to render entry notice")
		return nil
	}
	s.deliver(
		ctx,
		s.config.QualityTeam,
		fmt.Sprintf("Cambio de estado en el listado maestro: %s", entry.Code),
		body.String(),
	)
	return nil
}

/*
ActionAssigned an improvement action was assigned to a responsible party

	@param ctx context.Context - execution context
	@param action models.ImprovementAction - the new action
*/
func (s *smtpSinkImpl) ActionAssigned(
	ctx context.Context, action models.ImprovementAction,
) error {
	address, known := s.directory.LookupByName(action.Responsible)
	if !known {
		log.WithFields(s.LogTags).
			WithField("responsible", action.Responsible).
			Warn("No address on file for responsible party, skipping notice")
		return nil
	}

	var body bytes.Buffer
	if err := actionAssignedBody.Execute(&body, action); err != nil {
		log.WithError(err).WithFields(s.LogTags).Error("Failed to render assignment notice")
		return nil
	}
	s.deliver(
		ctx,
		[]string{address},
		fmt.Sprintf("Acción de mejora asignada: %s", action.Consecutive),
		body.String(),
	)
	return nil
}

// deliver send one notice, logging instead of failing on any problem
func (s *smtpSinkImpl) deliver(
	ctx context.Context,
	recipients []string,
	subject string,
	body string,
	attachments ...noticeAttachment,
) {
	if !s.config.Configured() {
		log.WithFields(s.LogTags).
			WithField("subject", subject).
			Warn("Mail transport not configured, dropping notice")
		return
	}
	if len(recipients) == 0 {
		log.WithFields(s.LogTags).WithField("subject", subject).Warn("Notice has no recipients")
		return
	}

	msg := mail.NewMsg()
	if err := msg.From(s.config.From); err != nil {
		log.WithError(err).WithFields(s.LogTags).Error("Invalid sender address")
		return
	}
	if err := msg.To(recipients...); err != nil {
		log.WithError(err).WithFields(s.LogTags).Error("Invalid recipient address")
		return
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	for _, attachment := range attachments {
		if err := msg.AttachReader(attachment.name, bytes.NewReader(attachment.payload)); err != nil {
			log.WithError(err).
				WithFields(s.LogTags).
				WithField("attachment", attachment.name).
				Error("Failed to attach file to notice")
			return
		}
	}

	opts := []mail.Option{mail.WithPort(s.config.Port)}
	if s.config.Username != "" {
		opts = append(
			opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
		)
	}

	client, err := mail.NewClient(s.config.Host, opts...)
	if err != nil {
		log.WithError(err).WithFields(s.LogTags).Error("Failed to prepare mail client")
		return
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		log.WithError(err).
			WithFields(s.LogTags).
			WithField("subject", subject).
			Error("Failed to deliver notice")
		return
	}

	log.WithFields(s.LogTags).WithField("subject", subject).Debug("Delivered notice")
}
