package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwlee-dix/h-stuido-dev-research/internal/kv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL    = 12 * time.Hour
	participantPrefix = "participant:"
)

var ErrInvalidAccessCode = errors.New("invalid access code")

type Service struct {
	secret         []byte
	accessCodeHash []byte
	store          kv.Store
	now            func() time.Time
}

type Claims struct {
	ParticipantID string `json:"participant_id"`
	jwt.RegisteredClaims
}

// NewService signs tokens with secret. When accessCodeHash is a bcrypt hash,
// enrolment requires the matching code; an empty hash leaves enrolment open.
func NewService(secret, accessCodeHash string, store kv.Store) *Service {
	return &Service{
		secret:         []byte(secret),
		accessCodeHash: []byte(accessCodeHash),
		store:          store,
		now:            time.Now,
	}
}

// Enrol registers a new participant and issues its bearer token.
func (s *Service) Enrol(ctx context.Context, req EnrolRequest) (Participant, TokenResponse, error) {
	if len(s.accessCodeHash) > 0 {
		if err := bcrypt.CompareHashAndPassword(s.accessCodeHash, []byte(req.AccessCode)); err != nil {
			return Participant{}, TokenResponse{}, ErrInvalidAccessCode
		}
	}

	p := Participant{
		ID:         uuid.NewString(),
		Label:      req.Label,
		EnrolledAt: s.now().UTC(),
	}
	if s.store != nil {
		payload, err := json.Marshal(p)
		if err != nil {
			return Participant{}, TokenResponse{}, err
		}
		if err := s.store.Set(ctx, participantPrefix+p.ID, string(payload)); err != nil {
			return Participant{}, TokenResponse{}, fmt.Errorf("save participant: %w", err)
		}
	}

	token, err := s.signToken(p.ID, accessTokenTTL)
	if err != nil {
		return Participant{}, TokenResponse{}, err
	}
	return p, TokenResponse{
		AccessToken:   token,
		TokenType:     "Bearer",
		ExpiresIn:     int64(accessTokenTTL.Seconds()),
		ParticipantID: p.ID,
	}, nil
}

// Participant loads an enrolled participant by id.
func (s *Service) Participant(ctx context.Context, id string) (Participant, error) {
	if s.store == nil {
		return Participant{}, kv.ErrNotFound
	}
	raw, err := s.store.Get(ctx, participantPrefix+id)
	if err != nil {
		return Participant{}, err
	}
	var p Participant
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Participant{}, fmt.Errorf("decode participant %s: %w", id, err)
	}
	return p, nil
}

func (s *Service) ValidateAccessToken(token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}
	return claims.ParticipantID, nil
}

func (s *Service) signToken(participantID string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		ParticipantID: participantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   participantID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ParticipantID == "" {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}
