package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/factoring-api/internal/domain"
	"github.com/jhoicas/factoring-api/internal/domain/entity"
	"github.com/jhoicas/factoring-api/internal/domain/repository"
)

var (
	_ repository.SubrogationRepository = (*receiptRepo)(nil)
	_ repository.AttachmentStore       = (*attachmentRepo)(nil)
)

type receiptRepo struct{ s *Store }

func (r *receiptRepo) Create(_ context.Context, rc *entity.SubrogationReceipt) error {
	if rc.IsDraft() {
		for _, other := range r.s.data.receipts {
			if other.IsDraft() && other.CompanyID == rc.CompanyID && other.FactorJournalID == rc.FactorJournalID {
				return domain.ErrDuplicateDraftBatch
			}
		}
	}
	if rc.ID == "" {
		rc.ID = uuid.New().String()
	}
	now := r.s.now()
	rc.CreatedAt, rc.UpdatedAt = now, now
	r.s.data.receipts[rc.ID] = cloneReceipt(rc)
	return nil
}

func (r *receiptRepo) Update(_ context.Context, rc *entity.SubrogationReceipt) error {
	if _, ok := r.s.data.receipts[rc.ID]; !ok {
		return fmt.Errorf("cesión %s: %w", rc.ID, domain.ErrNotFound)
	}
	rc.UpdatedAt = r.s.now()
	r.s.data.receipts[rc.ID] = cloneReceipt(rc)
	return nil
}

func (r *receiptRepo) GetByID(_ context.Context, id string) (*entity.SubrogationReceipt, error) {
	rc, ok := r.s.data.receipts[id]
	if !ok {
		return nil, nil
	}
	return cloneReceipt(rc), nil
}

// FindDraftForUpdate no necesita bloqueo propio: la transacción ya es exclusiva.
func (r *receiptRepo) FindDraftForUpdate(_ context.Context, companyID, journalID string) (*entity.SubrogationReceipt, error) {
	for _, rc := range r.s.data.receipts {
		if rc.IsDraft() && rc.CompanyID == companyID && rc.FactorJournalID == journalID {
			return cloneReceipt(rc), nil
		}
	}
	return nil, nil
}

func (r *receiptRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.SubrogationReceipt, error) {
	var out []*entity.SubrogationReceipt
	for _, rc := range r.s.data.receipts {
		if rc.CompanyID == companyID {
			out = append(out, rc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	res := make([]*entity.SubrogationReceipt, len(out))
	for i, rc := range out {
		res[i] = cloneReceipt(rc)
	}
	return res, nil
}

func (r *receiptRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.s.data.receipts[id]; !ok {
		return fmt.Errorf("cesión %s: %w", id, domain.ErrNotFound)
	}
	delete(r.s.data.receipts, id)
	return nil
}

func (r *receiptRepo) LastStatementDate(_ context.Context, companyID string, t entity.FactorType, currency string) (*time.Time, error) {
	var last *time.Time
	for _, st := range r.s.data.statements {
		j, ok := r.s.data.journals[st.JournalID]
		if !ok || st.CompanyID != companyID || j.FactorType != t || j.Currency.Code != currency {
			continue
		}
		if last == nil || st.Date.After(*last) {
			d := st.Date
			last = &d
		}
	}
	return last, nil
}

type attachmentRepo struct{ s *Store }

func (r *attachmentRepo) Store(_ context.Context, att *entity.Attachment) error {
	if att.ID == "" {
		att.ID = uuid.New().String()
	}
	sum := sha256.Sum256(att.Data)
	att.Checksum = hex.EncodeToString(sum[:])
	att.Location = "memory://" + att.ID
	att.CreatedAt = r.s.now()
	cp := *att
	cp.Data = append([]byte(nil), att.Data...)
	r.s.data.attachments[att.ID] = &cp
	return nil
}

func (r *attachmentRepo) ListByRecord(_ context.Context, resModel, resID string) ([]*entity.Attachment, error) {
	var out []*entity.Attachment
	for _, a := range r.s.data.attachments {
		if a.ResModel == resModel && a.ResID == resID {
			cp := *a
			cp.Data = append([]byte(nil), a.Data...)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *attachmentRepo) DeleteByRecord(_ context.Context, resModel, resID string) error {
	for id, a := range r.s.data.attachments {
		if a.ResModel == resModel && a.ResID == resID {
			delete(r.s.data.attachments, id)
		}
	}
	return nil
}
