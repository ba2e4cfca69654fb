package services_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/apex/log"
	"github.com/sigqms/doccontrol/db"
	"github.com/sigqms/doccontrol/models"
	"github.com/sigqms/doccontrol/notify"
	"github.com/sigqms/doccontrol/objectstore"
	"github.com/sigqms/doccontrol/services"
	"github.com/stretchr/testify/assert"
)

// TestNextVersion verifies the version increment rules.
func TestNextVersion(t *testing.T) {
	assert := assert.New(t)

	next, err := services.NextVersion("3")
	assert.Nil(err)
	assert.Equal("4", next)

	next, err = services.NextVersion("3.2")
	assert.Nil(err)
	assert.Equal("3.3", next)

	next, err = services.NextVersion("10.9")
	assert.Nil(err)
	assert.Equal("10.10", next)

	_, err = services.NextVersion("not-a-version")
	assert.NotNil(err)
	_, err = services.NextVersion("1.2.3")
	assert.NotNil(err)
}

// TestProposalsServiceApprovalFlow verifies the full submit and approve path.
func TestProposalsServiceApprovalFlow(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	client := prepareServicesTestDB(t)
	store := objectstore.NewMemoryStore()
	sink := notify.NewRecordingSink()

	registry, err := services.NewRegistryService(client, nil)
	assert.Nil(err)
	documents, err := services.NewDocumentsService(client, store, registry, nil)
	assert.Nil(err)
	uut, err := services.NewProposalsService(client, store, sink)
	assert.Nil(err)

	originalPayload := []byte("versión original")
	document, err := documents.Create(utCtx, services.NewDocumentRequest{
		Process:  models.ProcessQualitySafety,
		Name:     "Formato de inspección",
		Kind:     models.DocumentKindForm,
		Validity: "2026",
	}, &services.AttachmentUpload{
		Name:        "inspeccion.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(originalPayload)),
		Payload:     bytes.NewReader(originalPayload),
	}, nil)
	assert.Nil(err)
	originalRef := document.Attachment.StoreRef

	// -------------------------------------------------------------------------
	// 1 – Submit a proposal with a replacement attachment
	proposedPayload := []byte("versión propuesta")
	proposal, err := uut.Submit(utCtx, services.NewProposalRequest{
		DocumentID:    document.ID,
		Name:          "Formato de inspección y ensayo",
		Validity:      "2026", // unchanged, must not enter the change set
		Justification: "Se amplió el alcance del formato",
		Proposer:      "Jefe de producción",
	}, &services.AttachmentUpload{
		Name:        "inspeccion_v2.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(proposedPayload)),
		Payload:     bytes.NewReader(proposedPayload),
	}, nil)
	assert.Nil(err)
	assert.Equal(models.ProposalStatusPending, proposal.Status)

	details, err := uut.Details(utCtx, proposal.ID, nil)
	assert.Nil(err)
	assert.Equal("2", details.Changes.Version)
	assert.Equal("Formato de inspección y ensayo", details.Changes.Name)
	assert.Empty(details.Changes.Validity)
	assert.True(details.Changes.Attachment.Present())

	pending, err := uut.ListPending(utCtx, nil)
	assert.Nil(err)
	assert.Len(pending, 1)

	// -------------------------------------------------------------------------
	// 2 – Approve merges the change set into the document
	updated, err := uut.Approve(
		utCtx, proposal.ID, "Coordinador de Calidad", "revisión conforme", nil,
	)
	assert.Nil(err)
	assert.Equal("2", updated.Version)
	assert.Equal("Formato de inspección y ensayo", updated.Name)
	assert.Equal("2026", updated.Validity)
	assert.Equal("inspeccion_v2.pdf", updated.Attachment.Name)

	// The displaced attachment is gone, the new one remains
	exists, err := store.Exists(utCtx, originalRef)
	assert.Nil(err)
	assert.False(exists)
	_, fetched, err := uut.DownloadAttachment(utCtx, proposal.ID)
	assert.Nil(err)
	assert.Equal(proposedPayload, fetched)

	// 3 – The master list entry followed the change
	entry, err := registry.GetByCode(utCtx, document.Code, nil)
	assert.Nil(err)
	assert.Equal("2", entry.Version)
	assert.Equal("1", entry.PreviousVersion)
	assert.Equal("Formato de inspección y ensayo", entry.Name)
	assert.Equal("Se amplió el alcance del formato", entry.ChangeReason)

	closed, err := uut.Details(utCtx, proposal.ID, nil)
	assert.Nil(err)
	assert.Equal(models.ProposalStatusApproved, closed.Proposal.Status)
	assert.True(closed.Proposal.RegistrySynced)
	assert.Equal("Coordinador de Calidad", closed.Proposal.Reviewer)

	// 4 – Both workflow notices fired
	notices := sink.Notices()
	assert.Len(notices, 2)
	assert.Equal("proposal-submitted", notices[0].Event)
	assert.Equal("proposal-reviewed", notices[1].Event)

	// -------------------------------------------------------------------------
	// 5 – A closed proposal cannot be approved again
	_, err = uut.Approve(utCtx, proposal.ID, "otro revisor", "de nuevo", nil)
	assert.NotNil(err)
	assert.True(errors.Is(err, db.ErrNotFound))
}

// TestProposalsServiceReject verifies rejection discards the proposed change.
func TestProposalsServiceReject(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	client := prepareServicesTestDB(t)
	store := objectstore.NewMemoryStore()

	registry, err := services.NewRegistryService(client, nil)
	assert.Nil(err)
	documents, err := services.NewDocumentsService(client, store, registry, nil)
	assert.Nil(err)
	uut, err := services.NewProposalsService(client, store, nil)
	assert.Nil(err)

	document, err := documents.Create(utCtx, services.NewDocumentRequest{
		Process: models.ProcessClients,
		Name:    "Formato de quejas",
		Kind:    models.DocumentKindForm,
		Version: "2.4",
	}, nil, nil)
	assert.Nil(err)

	proposedPayload := []byte("propuesta rechazada")
	proposal, err := uut.Submit(utCtx, services.NewProposalRequest{
		DocumentID:    document.ID,
		Justification: "Cambio de numeración",
		Proposer:      "Auxiliar administrativo",
	}, &services.AttachmentUpload{
		Name:        "quejas_v25.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(proposedPayload)),
		Payload:     bytes.NewReader(proposedPayload),
	}, nil)
	assert.Nil(err)

	details, err := uut.Details(utCtx, proposal.ID, nil)
	assert.Nil(err)
	assert.Equal("2.5", details.Changes.Version)
	proposedRef := details.Changes.Attachment.StoreRef

	// -------------------------------------------------------------------------
	// 1 – Rejection leaves the document untouched
	assert.Nil(uut.Reject(utCtx, proposal.ID, "Coordinador de Calidad", "sin sustento", nil))
	read, err := documents.Get(utCtx, document.ID, nil)
	assert.Nil(err)
	assert.Equal("2.4", read.Version)
	assert.Equal("Formato de quejas", read.Name)

	// 2 – The proposed attachment was discarded
	exists, err := store.Exists(utCtx, proposedRef)
	assert.Nil(err)
	assert.False(exists)

	// 3 – The proposal is terminal
	closed, err := uut.Details(utCtx, proposal.ID, nil)
	assert.Nil(err)
	assert.Equal(models.ProposalStatusRejected, closed.Proposal.Status)
	assert.False(closed.Proposal.RegistrySynced)

	// 4 – Rejecting again reports not found
	err = uut.Reject(utCtx, proposal.ID, "otro", "de nuevo", nil)
	assert.NotNil(err)
	assert.True(errors.Is(err, db.ErrNotFound))
}
