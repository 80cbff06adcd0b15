package relay_test

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ridecipher/internal/access"
	"ridecipher/internal/crypto"
	"ridecipher/internal/domain"
	"ridecipher/internal/gateway"
	"ridecipher/internal/relay"
	"ridecipher/internal/services/encryption"
	"ridecipher/internal/session"
	"ridecipher/internal/store"
	"ridecipher/internal/vault"
)

var secret = []byte(strings.Repeat("r", 32))

func newGateway(t *testing.T, withAuth bool) *httptest.Server {
	t.Helper()
	mgr := encryption.New(vault.New(vault.Options{Capacity: 10}), encryption.Options{})
	rs, err := store.NewFileRecordStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileRecordStore: %v", err)
	}
	opts := gateway.Options{Service: mgr, Records: rs}
	if withAuth {
		v, err := access.NewTokenVerifier(secret, 0)
		if err != nil {
			t.Fatalf("NewTokenVerifier: %v", err)
		}
		opts.Verifier = v
	}
	srv := httptest.NewServer(gateway.New(opts).Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = mgr.Close(context.Background())
	})
	return srv
}

func TestClientRoundTrip(t *testing.T) {
	srv := newGateway(t, false)
	c := relay.NewHTTP(srv.URL+"/", srv.Client())
	ctx := context.Background()

	kp, err := crypto.GenerateKeyPair(crypto.CurveP256)
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	hs, err := c.CreateSession(ctx, "R1", kp.PublicBytes())
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if crypto.Fingerprint(hs.ServerPublicKey) != hs.Fingerprint {
		t.Fatal("fingerprint does not match server key")
	}

	fix := domain.Location{Latitude: 6.5244, Longitude: 3.3792, Bearing: domain.Float(90), Timestamp: time.Now()}
	rec, err := c.Encrypt(ctx, hs.SessionID, fix)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	key, err := kp.DeriveSharedKey(hs.ServerPublicKey)
	if err != nil {
		t.Fatalf("DeriveSharedKey: %v", err)
	}
	local, err := session.New(hs.SessionID, hs.RideID, key, session.Options{})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	if _, err := local.Decrypt(rec); err != nil {
		t.Fatalf("local open: %v", err)
	}

	loc, err := c.Decrypt(ctx, rec)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if math.Abs(loc.Latitude-fix.Latitude) > 1e-6 || loc.Bearing == nil || *loc.Bearing != 90 {
		t.Fatalf("location = %+v", loc)
	}

	recs, err := c.Records(ctx, "R1")
	if err != nil || len(recs) != 1 || recs[0].ID == "" {
		t.Fatalf("Records = %+v, %v", recs, err)
	}

	st, err := c.Stats(ctx)
	if err != nil || st.Total != 1 {
		t.Fatalf("Stats = %+v, %v", st, err)
	}

	sum, err := c.EndSession(ctx, hs.SessionID)
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if sum.UseCount != 2 || sum.SessionID != hs.SessionID {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestClientMapsErrors(t *testing.T) {
	srv := newGateway(t, false)
	c := relay.NewHTTP(srv.URL, srv.Client())
	ctx := context.Background()

	_, err := c.Encrypt(ctx, "missing", domain.Location{Latitude: 1, Longitude: 1, Timestamp: time.Now()})
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
	var se *relay.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusNotFound || se.Code != "session_not_found" {
		t.Fatalf("status error = %+v", se)
	}

	if _, err := c.CreateSession(ctx, "R1", []byte{1, 2, 3}); !errors.Is(err, domain.ErrKeyExchange) {
		t.Fatalf("want ErrKeyExchange, got %v", err)
	}
	if _, err := c.EndSession(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("EndSession unknown: %v", err)
	}
}

func TestClientSendsToken(t *testing.T) {
	srv := newGateway(t, true)
	anon := relay.NewHTTP(srv.URL, srv.Client())

	_, err := anon.Stats(context.Background())
	var se *relay.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusUnauthorized {
		t.Fatalf("anonymous stats: %v", err)
	}

	tok, err := access.IssueToken(secret, "ops", access.RoleOperator, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := anon.WithToken(tok).Stats(context.Background()); err != nil {
		t.Fatalf("operator stats: %v", err)
	}
	if anon.Token != "" {
		t.Fatal("WithToken mutated the original client")
	}
}
