package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

type fakeAuthClient struct {
	txnID      string
	token      string
	genErr     error
	valErr     error
	genCalls   int
	valCalls   int
	lastMobile string
	lastHash   string
	lastTxnID  string
}

func (f *fakeAuthClient) GenerateOTP(ctx context.Context, mobile string) (string, error) {
	f.genCalls++
	f.lastMobile = mobile
	return f.txnID, f.genErr
}

func (f *fakeAuthClient) ValidateOTP(ctx context.Context, hashedCode, txnID string) (string, error) {
	f.valCalls++
	f.lastHash = hashedCode
	f.lastTxnID = txnID
	return f.token, f.valErr
}

type staticPrompt struct {
	code string
	err  error
}

func (p staticPrompt) Code(ctx context.Context) (string, error) { return p.code, p.err }

func TestLogin(t *testing.T) {
	client := &fakeAuthClient{txnID: "txn-1", token: "tok-1"}
	mgr := NewManager(client, staticPrompt{code: "123456"}, nil)

	session, err := mgr.Login(context.Background(), "9876543210")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if session.Token != "tok-1" || session.Identity != "9876543210" {
		t.Errorf("session = %+v", session)
	}
	if mgr.Session() != session {
		t.Error("Session() must return the live session")
	}
	if client.lastTxnID != "txn-1" {
		t.Errorf("txnID = %q, want txn-1", client.lastTxnID)
	}

	// The code is hashed before it goes on the wire.
	sum := sha256.Sum256([]byte("123456"))
	if want := hex.EncodeToString(sum[:]); client.lastHash != want {
		t.Errorf("hash = %q, want %q", client.lastHash, want)
	}
}

func TestLogin_ChallengeFailure(t *testing.T) {
	client := &fakeAuthClient{genErr: errors.New("boom")}
	mgr := NewManager(client, staticPrompt{code: "123456"}, nil)

	if _, err := mgr.Login(context.Background(), "9876543210"); err == nil {
		t.Fatal("want error")
	}
	if client.valCalls != 0 {
		t.Error("validate must not be called after a failed challenge")
	}
	if mgr.Session().Token != "" {
		t.Error("session must stay zero after a failed login")
	}
}

func TestLogin_PromptFailure(t *testing.T) {
	client := &fakeAuthClient{txnID: "txn-1"}
	mgr := NewManager(client, staticPrompt{err: errors.New("eof")}, nil)

	if _, err := mgr.Login(context.Background(), "9876543210"); err == nil {
		t.Fatal("want error")
	}
	if client.valCalls != 0 {
		t.Error("validate must not be called without a code")
	}
}

func TestRefresh_ReusesIdentity(t *testing.T) {
	client := &fakeAuthClient{txnID: "txn-1", token: "tok-1"}
	mgr := NewManager(client, staticPrompt{code: "123456"}, nil)

	if _, err := mgr.Login(context.Background(), "9876543210"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	client.token = "tok-2"
	session, err := mgr.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if session.Token != "tok-2" {
		t.Errorf("Token = %q, want tok-2", session.Token)
	}
	if client.lastMobile != "9876543210" {
		t.Errorf("refresh used identity %q", client.lastMobile)
	}
	if client.genCalls != 2 {
		t.Errorf("genCalls = %d, want 2", client.genCalls)
	}
	if mgr.Session().Token != "tok-2" {
		t.Error("live session must carry the fresh token")
	}
}

func TestRefresh_BeforeLogin(t *testing.T) {
	mgr := NewManager(&fakeAuthClient{}, staticPrompt{}, nil)

	_, err := mgr.Refresh(context.Background())
	if err == nil {
		t.Fatal("want error")
	}
	var authErr *Error
	if !errors.As(err, &authErr) || authErr.Op != "refresh" {
		t.Errorf("err = %v, want refresh *Error", err)
	}
}
