package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"ridecipher/internal/crypto"
	"ridecipher/internal/domain"
	"ridecipher/internal/gateway"
)

// HTTP talks to a gateway at Base.
type HTTP struct {
	Base  string
	HTTP  *http.Client
	Token string
}

// NewHTTP returns a client for base. A nil client means http.DefaultClient.
func NewHTTP(base string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{Base: strings.TrimRight(base, "/"), HTTP: client}
}

// WithToken returns a copy of c that sends token as a bearer credential.
func (c *HTTP) WithToken(token string) *HTTP {
	cp := *c
	cp.Token = token
	return &cp
}

// CreateSession sends the client public key and returns the handshake.
func (c *HTTP) CreateSession(ctx context.Context, ride domain.RideID, clientPublicKey []byte) (domain.Handshake, error) {
	var out gateway.HandshakeResponse
	err := c.do(ctx, http.MethodPost, "/v1/sessions", gateway.CreateSessionRequest{
		RideID:          string(ride),
		ClientPublicKey: crypto.B64(clientPublicKey),
	}, &out)
	if err != nil {
		return domain.Handshake{}, err
	}
	pub, err := crypto.FromB64(out.ServerPublicKey)
	if err != nil {
		return domain.Handshake{}, fmt.Errorf("relay: server public key: %w", err)
	}
	return domain.Handshake{
		SessionID:       domain.SessionID(out.SessionID),
		RideID:          domain.RideID(out.RideID),
		ServerPublicKey: pub,
		Fingerprint:     domain.Fingerprint(out.Fingerprint),
		ExpiresAt:       out.ExpiresAt,
	}, nil
}

// Encrypt asks the gateway to seal loc.
func (c *HTTP) Encrypt(ctx context.Context, id domain.SessionID, loc domain.Location) (domain.EncryptedRecord, error) {
	var out gateway.Record
	if err := c.do(ctx, http.MethodPost, sessionPath(id, "encrypt"), gateway.EncryptRequest{Location: loc}, &out); err != nil {
		return domain.EncryptedRecord{}, err
	}
	return out.Decode()
}

// Decrypt asks the gateway to open rec.
func (c *HTTP) Decrypt(ctx context.Context, rec domain.EncryptedRecord) (domain.Location, error) {
	in := gateway.EncodeRecord(rec)
	var out domain.Location
	err := c.do(ctx, http.MethodPost, sessionPath(rec.SessionID, "decrypt"), gateway.DecryptRequest{
		Ciphertext: in.Ciphertext,
		Nonce:      in.Nonce,
		Sequence:   in.Sequence,
		Timestamp:  in.Timestamp,
		RideID:     in.RideID,
	}, &out)
	if err != nil {
		return domain.Location{}, err
	}
	return out, nil
}

// EndSession terminates the session on the gateway.
func (c *HTTP) EndSession(ctx context.Context, id domain.SessionID) (domain.SessionSummary, error) {
	var out gateway.EndSessionResponse
	if err := c.do(ctx, http.MethodDelete, sessionPath(id, ""), nil, &out); err != nil {
		return domain.SessionSummary{}, err
	}
	return domain.SessionSummary{
		SessionID: domain.SessionID(out.SessionID),
		EndedAt:   out.EndedAt,
		UseCount:  out.FinalStats.UseCount,
		Duration:  secondsToDuration(out.FinalStats.DurationSeconds),
	}, nil
}

// Stats fetches vault occupancy.
func (c *HTTP) Stats(ctx context.Context) (domain.VaultStats, error) {
	var out domain.VaultStats
	err := c.do(ctx, http.MethodGet, "/v1/stats", nil, &out)
	return out, err
}

// Records lists the stored records of ride.
func (c *HTTP) Records(ctx context.Context, ride domain.RideID) ([]domain.StoredRecord, error) {
	var out gateway.RecordList
	if err := c.do(ctx, http.MethodGet, "/v1/rides/"+url.PathEscape(string(ride))+"/records", nil, &out); err != nil {
		return nil, err
	}
	recs := make([]domain.StoredRecord, 0, len(out.Records))
	for _, r := range out.Records {
		rec, err := r.Decode()
		if err != nil {
			return nil, err
		}
		sr := domain.StoredRecord{ID: r.ID, Record: rec}
		if r.StoredAt != nil {
			sr.StoredAt = *r.StoredAt
		}
		recs = append(recs, sr)
	}
	return recs, nil
}

func sessionPath(id domain.SessionID, action string) string {
	p := "/v1/sessions/" + url.PathEscape(string(id))
	if action != "" {
		p += "/" + action
	}
	return p
}

func (c *HTTP) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return newStatusError(method, path, resp)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

var _ domain.GatewayClient = (*HTTP)(nil)
