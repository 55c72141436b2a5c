package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bolsillo/internal/core"
	"bolsillo/internal/debts"
	"bolsillo/internal/ledger"
	"bolsillo/internal/netstatus"
	"bolsillo/internal/notify"
	"bolsillo/internal/queue"
	"bolsillo/internal/recurring"
	"bolsillo/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	st := memory.New()

	applier := queue.NewApplier(st)
	opQueue := queue.New(st, applier)
	monitor := netstatus.NewMonitor(netstatus.AlwaysOnline{}, time.Minute, nil)
	gateway := queue.NewGateway(applier, opQueue, monitor.Online)

	srv := NewServer(":0", Deps{
		Store:       st,
		Coordinator: ledger.NewCoordinator(st),
		Debts:       debts.NewService(st),
		Gateway:     gateway,
		Queue:       opQueue,
		Monitor:     monitor,
		Sink:        notify.LogSink{},
		Recurring:   recurring.NewProcessor(st, notify.LogSink{}),
	})
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, st
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func seedAccount(t *testing.T, st *memory.Store, a core.Account) {
	t.Helper()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if err := st.PutAccount(context.Background(), a); err != nil {
		t.Fatalf("seed account: %v", err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
	}
}

func TestCreateAccountAndBalance(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/accounts",
		`{"id":"checking","name":"Checking","kind":"savings","initial_balance_cents":100000}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create account status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"kind":"expense","amount_cents":2500,"category":"food","description":"lunch","settled":true,"account_id":"checking"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create transaction status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/accounts/checking/balance", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("balance status = %d", rr.Code)
	}
	var got balanceView
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if got.Balance != 97500 {
		t.Errorf("balance = %d, want 97500", got.Balance)
	}
}

func TestCreateTransactionRejectsOverdraft(t *testing.T) {
	srv, st := newTestServer(t)
	seedAccount(t, st, core.Account{
		ID: "wallet", Name: "Wallet", Kind: core.Cash,
		InitialBalance: core.NewMoney(1000),
	})

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"kind":"expense","amount_cents":5000,"category":"food","description":"dinner","settled":true,"account_id":"wallet"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rr.Code, rr.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Class != "validation" {
		t.Errorf("error class = %q, want validation", resp.Class)
	}
}

func TestCreateUnsettledCreditExpenseChecksLimit(t *testing.T) {
	srv, st := newTestServer(t)
	seedAccount(t, st, core.Account{
		ID: "card", Name: "Card", Kind: core.Credit,
		CreditLimit: core.NewMoney(500000),
	})

	// A credit purchase consumes capacity immediately, settled or not.
	rr := doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"kind":"expense","amount_cents":2000000,"category":"travel","description":"flights","settled":false,"account_id":"card"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("over-limit unsettled expense status = %d, want 400; body %s", rr.Code, rr.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Class != "validation" {
		t.Errorf("error class = %q, want validation", resp.Class)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"kind":"expense","amount_cents":100000,"category":"travel","description":"hotel","settled":false,"account_id":"card"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("within-limit unsettled expense status = %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestUpdateTransactionRejectsOverdraft(t *testing.T) {
	srv, st := newTestServer(t)
	seedAccount(t, st, core.Account{
		ID: "checking", Name: "Checking", Kind: core.Savings,
		InitialBalance: core.NewMoney(10000),
	})

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions",
		`{"id":"t1","kind":"expense","amount_cents":6000,"category":"food","description":"groceries","settled":true,"account_id":"checking"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}

	// Growing the expense to 9000 only fits if the prior version of the
	// row is excluded from the history it is validated against.
	rr = doJSON(t, srv, http.MethodPut, "/api/transactions/t1",
		`{"kind":"expense","amount_cents":9000,"category":"food","description":"groceries","settled":true,"account_id":"checking"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("within-balance update status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodPut, "/api/transactions/t1",
		`{"kind":"expense","amount_cents":11000,"category":"food","description":"groceries","settled":true,"account_id":"checking"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("overdraft update status = %d, want 400; body %s", rr.Code, rr.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Class != "validation" {
		t.Errorf("error class = %q, want validation", resp.Class)
	}
}

func TestCreateTransactionReportsDuplicates(t *testing.T) {
	srv, st := newTestServer(t)
	seedAccount(t, st, core.Account{
		ID: "checking", Name: "Checking", Kind: core.Savings,
		InitialBalance: core.NewMoney(100000),
	})

	body := `{"kind":"expense","amount_cents":2500,"category":"food","description":"lunch","settled":true,"account_id":"checking"}`
	if rr := doJSON(t, srv, http.MethodPost, "/api/transactions", body); rr.Code != http.StatusCreated {
		t.Fatalf("first create status = %d", rr.Code)
	}

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("second create status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp createTransactionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Duplicates) == 0 {
		t.Error("expected duplicate advisories, got none")
	}
	if resp.Queued {
		t.Error("online write should not be queued")
	}
}

func TestTransferEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	seedAccount(t, st, core.Account{
		ID: "checking", Name: "Checking", Kind: core.Savings,
		InitialBalance: core.NewMoney(50000),
	})
	seedAccount(t, st, core.Account{
		ID: "wallet", Name: "Wallet", Kind: core.Cash,
	})

	rr := doJSON(t, srv, http.MethodPost, "/api/transfers",
		`{"source_id":"checking","destination_id":"wallet","amount_cents":10000,"description":"cash out"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("transfer status = %d, body %s", rr.Code, rr.Body.String())
	}

	// Same account rejected before any write.
	rr = doJSON(t, srv, http.MethodPost, "/api/transfers",
		`{"source_id":"checking","destination_id":"checking","amount_cents":100}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("same-account transfer status = %d, want 400", rr.Code)
	}

	// Missing destination maps to 404.
	rr = doJSON(t, srv, http.MethodPost, "/api/transfers",
		`{"source_id":"checking","destination_id":"ghost","amount_cents":100}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing destination status = %d, want 404", rr.Code)
	}
}

func TestDebtLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/debts",
		`{"id":"d1","person_name":"Ana","direction":"lent","amount_cents":10000}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create debt status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/debts/d1/modify",
		`{"op":"subtract","amount_cents":10000}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("modify debt status = %d, body %s", rr.Code, rr.Body.String())
	}
	var got debtView
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode debt: %v", err)
	}
	if !got.Settled {
		t.Error("fully repaid debt should be settled")
	}

	// Further mutations on a settled debt are validation errors.
	rr = doJSON(t, srv, http.MethodPost, "/api/debts/d1/modify",
		`{"op":"subtract","amount_cents":1}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("over-repay status = %d, want 400", rr.Code)
	}
}

func TestQueueStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/api/queue/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("queue stats status = %d", rr.Code)
	}
	var got queueStatsView
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if got.Pending != 0 || got.InFlight != 0 {
		t.Errorf("fresh queue stats = %+v, want zeroes", got)
	}
	if !got.Online {
		t.Error("always-online monitor should report online")
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodPost, "/api/accounts",
		`{"name":"X","kind":"cash","bogus":true}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}
