package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"uponly/core"
	"uponly/core/types"
	"uponly/storage"
)

var (
	deployer    = testAddr(0x01)
	saleMint    = testAddr(0xAA)
	paymentMint = testAddr(0xBB)
)

func testAddr(b byte) [20]byte {
	var out [20]byte
	out[0] = b
	return out
}

func newTestServer(t *testing.T) (*httptest.Server, *core.Processor) {
	t.Helper()
	p := core.NewProcessor(storage.NewMemDB())
	m := p.State()
	require.NoError(t, m.CreateMint(paymentMint, deployer, 6))
	require.NoError(t, m.CreateMint(saleMint, deployer, 9))

	auth := types.SignerAuthority(deployer)
	payment, err := m.EnsureAssociatedTokenAccount(deployer, paymentMint)
	require.NoError(t, err)
	require.NoError(t, m.MintTo(paymentMint, payment, auth, big.NewInt(1_000_000_000_000)))
	sale, err := m.EnsureAssociatedTokenAccount(deployer, saleMint)
	require.NoError(t, err)
	require.NoError(t, m.MintTo(saleMint, sale, auth, big.NewInt(1_000_000_000)))

	server := httptest.NewServer(NewServer(p, nil).Router())
	t.Cleanup(server.Close)
	return server, p
}

func postJSON(t *testing.T, server *httptest.Server, path string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func fundUser(t *testing.T, p *core.Processor, user [20]byte, amount int64) {
	t.Helper()
	m := p.State()
	account, err := m.EnsureAssociatedTokenAccount(user, paymentMint)
	require.NoError(t, err)
	require.NoError(t, m.MintTo(paymentMint, account, types.SignerAuthority(deployer), big.NewInt(amount)))
}

func TestInitializeAndQuerySale(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/v1/sale")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postJSON(t, server, "/v1/tx/initialize", initializeRequest{
		Deployer:    encodeAddress(deployer),
		SaleMint:    encodeAddress(saleMint),
		PaymentMint: encodeAddress(paymentMint),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, server, "/v1/tx/initialize", initializeRequest{
		Deployer:    encodeAddress(deployer),
		SaleMint:    encodeAddress(saleMint),
		PaymentMint: encodeAddress(paymentMint),
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = http.Get(server.URL + "/v1/sale")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sale map[string]interface{}
	decodeJSON(t, resp, &sale)
	require.Equal(t, "UpOnly", sale["name"])
	require.Equal(t, "UP", sale["symbol"])

	resp, err = http.Get(server.URL + "/v1/curve")
	require.NoError(t, err)
	defer resp.Body.Close()
	var curve map[string]json.Number
	decodeJSON(t, resp, &curve)
	require.Equal(t, json.Number("3000"), curve["liquidity"])
	require.Equal(t, json.Number("1000000000"), curve["supply"])
}

func TestPassPurchaseOverHTTP(t *testing.T) {
	server, p := newTestServer(t)
	resp := postJSON(t, server, "/v1/tx/initialize", initializeRequest{
		Deployer:    encodeAddress(deployer),
		SaleMint:    encodeAddress(saleMint),
		PaymentMint: encodeAddress(paymentMint),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = postJSON(t, server, "/v1/tx/founders/init", callerRequest{Caller: encodeAddress(deployer)})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	buyer := testAddr(0x10)
	fundUser(t, p, buyer, 100_000_000_000)

	// Market access is refused before the pass purchase.
	resp = postJSON(t, server, "/v1/tx/market/buy", tradeRequest{
		Account: encodeAddress(buyer),
		Amount:  "1000000000",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = postJSON(t, server, "/v1/tx/pass/buy", passRequest{Buyer: encodeAddress(buyer)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var record passResponse
	decodeJSON(t, resp, &record)
	require.True(t, record.HasPass)
	require.Equal(t, encodeAddress(buyer), record.Owner)

	resp, err := http.Get(fmt.Sprintf("%s/v1/pass/%s", server.URL, encodeAddress(buyer)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, server, "/v1/tx/market/buy", tradeRequest{
		Account: encodeAddress(buyer),
		Amount:  "1000000000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var receipt buyResponse
	decodeJSON(t, resp, &receipt)
	require.EqualValues(t, 20_000_000, receipt.Team.Int64())
	require.True(t, receipt.Minted.Sign() > 0)
}

func TestCurveQueryBeforeInitialize(t *testing.T) {
	server, _ := newTestServer(t)
	resp, err := http.Get(server.URL + "/v1/curve")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
}

func TestValidationErrors(t *testing.T) {
	server, _ := newTestServer(t)
	resp := postJSON(t, server, "/v1/tx/pass/buy", passRequest{Buyer: "not-an-address"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, server, "/v1/tx/market/sell", tradeRequest{
		Account: encodeAddress(testAddr(0x10)),
		Amount:  "abc",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
