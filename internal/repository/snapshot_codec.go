package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
	"wealth_manager/internal/domain"
	"wealth_manager/pkg/crypto"
	"wealth_manager/pkg/validator"

	"github.com/google/uuid"
)

// SnapshotVersion is the envelope version written by Encode. Version 0 is
// the unversioned blob that predates the envelope.
const SnapshotVersion = 1

type envelope struct {
	Version         int             `json:"version"`
	Signature       string          `json:"signature,omitempty"`
	Income          json.RawMessage `json:"income"`
	Assets          json.RawMessage `json:"assets"`
	Liabilities     json.RawMessage `json:"liabilities"`
	CreditCards     json.RawMessage `json:"creditCards"`
	Recommendations json.RawMessage `json:"recommendations"`
}

// SnapshotCodec turns a snapshot into the persisted blob and back.
type SnapshotCodec struct {
	signer           *crypto.Signer
	validator        *validator.EntityValidator
	requireSignature bool
	newID            func() string
	now              func() time.Time
}

func NewSnapshotCodec(signer *crypto.Signer) *SnapshotCodec {
	return &SnapshotCodec{
		signer:    signer,
		validator: validator.NewEntityValidator(),
		newID:     uuid.NewString,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RequireSignature makes a versioned blob without a signature fail like a
// tampered one. It has no effect while signing is disabled.
func (c *SnapshotCodec) RequireSignature(required bool) *SnapshotCodec {
	c.requireSignature = required
	return c
}

func (c *SnapshotCodec) Encode(data *domain.FinancialData) ([]byte, error) {
	data = data.Clone()
	env := envelope{Version: SnapshotVersion}

	fields := []struct {
		dst *json.RawMessage
		v   any
	}{
		{&env.Income, data.Income},
		{&env.Assets, data.Assets},
		{&env.Liabilities, data.Liabilities},
		{&env.CreditCards, data.CreditCards},
		{&env.Recommendations, data.Recommendations},
	}
	for _, f := range fields {
		raw, err := json.Marshal(f.v)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot: %w", err)
		}
		*f.dst = raw
	}

	env.Signature = c.signer.SignParts(signingParts(env)...)

	out, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot envelope: %w", err)
	}
	return out, nil
}

// Decode parses a persisted blob. The returned snapshot is always usable
// unless the error is ErrUnsupported: any collection that fails to parse or
// holds an invalid record is replaced by its seed default and reported in
// the joined error. The returned version is the one found in the blob,
// before migration.
func (c *SnapshotCodec) Decode(raw []byte) (*domain.FinancialData, int, error) {
	seed := domain.NewSeedData(c.newID, c.now())

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return seed, 0, fmt.Errorf("parse snapshot envelope: %w", err)
	}
	version := env.Version

	if version > SnapshotVersion {
		return nil, version, fmt.Errorf("%w: %d", ErrUnsupported, version)
	}

	// Unsigned blobs are accepted unless a signature is required, so signing
	// can be turned on for an existing store; the next save signs them.
	if version >= 1 && c.signer.Enabled() && env.Signature == "" && c.requireSignature {
		return seed, version, fmt.Errorf("%w: missing", ErrInvalidSignature)
	}
	if version >= 1 && c.signer.Enabled() && env.Signature != "" {
		compacted := env
		for _, f := range []*json.RawMessage{
			&compacted.Income,
			&compacted.Assets,
			&compacted.Liabilities,
			&compacted.CreditCards,
			&compacted.Recommendations,
		} {
			*f = compactRaw(*f)
		}
		if ok, _ := c.signer.VerifyParts(env.Signature, signingParts(compacted)...); !ok {
			return seed, version, ErrInvalidSignature
		}
	}

	if version == 0 {
		migrateV0(&env)
	}

	data := &domain.FinancialData{}
	var errs []error
	v := c.validator
	decodeCollection(&errs, "income", env.Income, &data.Income, seed.Income,
		func(r domain.Income) string { return r.ID }, v.ValidateIncomeRecord)
	decodeCollection(&errs, "assets", env.Assets, &data.Assets, seed.Assets,
		func(r domain.Asset) string { return r.ID }, v.ValidateAssetRecord)
	decodeCollection(&errs, "liabilities", env.Liabilities, &data.Liabilities, seed.Liabilities,
		func(r domain.Liability) string { return r.ID }, v.ValidateLiabilityRecord)
	decodeCollection(&errs, "creditCards", env.CreditCards, &data.CreditCards, seed.CreditCards,
		func(r domain.CreditCard) string { return r.ID }, v.ValidateCreditCardRecord)
	decodeCollection(&errs, "recommendations", env.Recommendations, &data.Recommendations, seed.Recommendations,
		func(r domain.Recommendation) string { return r.ID }, v.ValidateRecommendation)

	return data, version, errors.Join(errs...)
}

// decodeCollection parses one collection and checks every record. A
// collection that does not parse or holds a bad record is replaced whole by
// fallback.
func decodeCollection[T any](
	errs *[]error,
	name string,
	raw json.RawMessage,
	dst *[]T,
	fallback []T,
	id func(T) string,
	check func(T) error,
) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*dst = fallback
		return
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		*dst = fallback
		*errs = append(*errs, fmt.Errorf("collection %s: %w", name, err))
		return
	}
	if err := validator.ValidateIDs(out, id); err != nil {
		*dst = fallback
		*errs = append(*errs, fmt.Errorf("collection %s: %w", name, err))
		return
	}
	for i, rec := range out {
		if err := check(rec); err != nil {
			*dst = fallback
			*errs = append(*errs, fmt.Errorf("collection %s record %d: %w", name, i, err))
			return
		}
	}
	if out == nil {
		out = []T{}
	}
	*dst = out
}

func signingParts(env envelope) [][]byte {
	return [][]byte{
		[]byte(strconv.Itoa(env.Version)),
		env.Income,
		env.Assets,
		env.Liabilities,
		env.CreditCards,
		env.Recommendations,
	}
}

func compactRaw(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

// numericFields lists, per collection, the fields the unversioned format
// could hold as strings because they came straight from form inputs.
var numericFields = map[string][]string{
	"income":      {"amount"},
	"assets":      {"value", "growthRate"},
	"liabilities": {"balance", "interestRate", "monthlyPayment"},
	"creditCards": {"balance", "creditLimit", "interestRate", "monthlyPayment"},
}

// migrateV0 rewrites the unversioned collections in place: numeric strings
// become numbers, income without a frequency is taken as monthly and assets
// or liabilities without a category become "other". A
// collection that cannot be migrated is left untouched for decodeCollection
// to reject on its own.
func migrateV0(env *envelope) {
	targets := map[string]*json.RawMessage{
		"income":      &env.Income,
		"assets":      &env.Assets,
		"liabilities": &env.Liabilities,
		"creditCards": &env.CreditCards,
	}
	for name, raw := range targets {
		if migrated, ok := migrateRecords(name, *raw); ok {
			*raw = migrated
		}
	}
	env.Version = SnapshotVersion
}

func migrateRecords(name string, raw json.RawMessage) (json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false
	}
	for _, rec := range records {
		for _, field := range numericFields[name] {
			s, ok := rec[field].(string)
			if !ok {
				continue
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, false
			}
			rec[field] = f
		}
		switch name {
		case "income":
			if _, ok := rec["frequency"]; !ok {
				rec["frequency"] = string(domain.FrequencyMonthly)
			}
		case "assets", "liabilities":
			if _, ok := rec["category"]; !ok {
				rec["category"] = "other"
			}
		}
	}
	out, err := json.Marshal(records)
	if err != nil {
		return nil, false
	}
	return out, true
}
