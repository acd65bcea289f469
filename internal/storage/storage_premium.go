package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrKeyNotFound = errors.New("premium key does not exist")
	ErrKeyUsed     = errors.New("premium key has already been redeemed")
)

// PremiumKey is one entry in the global key ledger.
type PremiumKey struct {
	Code       string    `json:"code"`
	Days       int       `json:"days"`
	CreatedAt  time.Time `json:"created_at"`
	RedeemedBy string    `json:"redeemed_by,omitempty"`
	RedeemedAt time.Time `json:"redeemed_at,omitzero"`
}

func (s *Storage) loadLedger() (map[string]PremiumKey, error) {
	data, exists := s.ds.Get(premiumLedgerKey)
	if !exists {
		return make(map[string]PremiumKey), nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal key ledger: %w", err)
	}
	var ledger map[string]PremiumKey
	if err := json.Unmarshal(raw, &ledger); err != nil {
		return nil, fmt.Errorf("unmarshal key ledger: %w", err)
	}
	return ledger, nil
}

// GeneratePremiumKey mints a new redeemable key valid for the given
// number of days after redemption.
func (s *Storage) GeneratePremiumKey(days int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.loadLedger()
	if err != nil {
		return "", err
	}

	code := uuid.NewString()
	ledger[code] = PremiumKey{
		Code:      code,
		Days:      days,
		CreatedAt: time.Now(),
	}
	s.ds.Add(premiumLedgerKey, ledger)
	return code, nil
}

// RedeemPremiumKey marks a key as used and activates premium on the
// user's record. Returns the resulting expiry date.
func (s *Storage) RedeemPremiumKey(userID, code string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.loadLedger()
	if err != nil {
		return time.Time{}, err
	}

	key, ok := ledger[code]
	if !ok {
		return time.Time{}, ErrKeyNotFound
	}
	if key.RedeemedBy != "" {
		return time.Time{}, ErrKeyUsed
	}

	record, err := s.getOrCreateUserRecord(userID)
	if err != nil {
		return time.Time{}, err
	}

	now := time.Now()
	expiry := now.AddDate(0, 0, key.Days)

	// extend rather than replace when the user already has time left
	if record.Premium != nil && record.Premium.ExpiresAt.After(now) {
		expiry = record.Premium.ExpiresAt.AddDate(0, 0, key.Days)
	}

	key.RedeemedBy = userID
	key.RedeemedAt = now
	ledger[code] = key
	s.ds.Add(premiumLedgerKey, ledger)

	record.Premium = &PremiumStatus{
		Key:         code,
		ActivatedAt: now,
		ExpiresAt:   expiry,
	}
	s.saveUserRecord(userID, record)

	return expiry, nil
}

// IsPremium reports whether the user has an unexpired premium status.
func (s *Storage) IsPremium(userID string) (bool, error) {
	record, err := s.getOrCreateUserRecord(userID)
	if err != nil {
		return false, err
	}
	return s.premiumActive(record), nil
}

func (s *Storage) PremiumInfo(userID string) (*PremiumStatus, error) {
	record, err := s.getOrCreateUserRecord(userID)
	if err != nil {
		return nil, err
	}
	return record.Premium, nil
}

func (s *Storage) premiumActive(record *UserRecord) bool {
	return record.Premium != nil && record.Premium.ExpiresAt.After(time.Now())
}
