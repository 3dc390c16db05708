package payments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	config "github.com/takoucam/marketplace/configs"
	"github.com/takoucam/marketplace/utils"
)

// Gateway is the capability the rest of the system uses to talk to the
// mobile-money provider. It is stateless so tests can swap in a fake.
type Gateway interface {
	Deposit(params DepositParams) (*ProviderResult, error)
	Payout(params PayoutParams) (*ProviderResult, error)
	Refund(params RefundParams) (*ProviderResult, error)
	CheckDepositStatus(depositID string) (*ProviderResult, error)
	CheckPayoutStatus(payoutID string) (*ProviderResult, error)
	CheckRefundStatus(refundID string) (*ProviderResult, error)
}

type DepositParams struct {
	PhoneNumber   string
	Amount        float64
	TransactionID string
	Metadata      map[string]interface{}
	Description   string
	Country       string
	Currency      string
	Correspondent string
}

type PayoutParams struct {
	PhoneNumber   string
	Amount        float64
	TransactionID string
	Metadata      map[string]interface{}
	Description   string
	Country       string
	Currency      string
	Correspondent string
}

type RefundParams struct {
	DepositID     string
	Amount        float64
	TransactionID string
	Metadata      map[string]interface{}
	Reason        string
}

// ProviderResult is the normalized view of a provider response.
type ProviderResult struct {
	Status                string
	ProviderTransactionID string
	RejectionReason       string
	FailureMessage        string
	Raw                   map[string]interface{}
}

type msisdnAddress struct {
	Value string `json:"value"`
}

type msisdnParty struct {
	Type    string        `json:"type"`
	Address msisdnAddress `json:"address"`
}

type depositPayload struct {
	DepositID            string          `json:"depositId"`
	Amount               string          `json:"amount"`
	Currency             string          `json:"currency"`
	Country              string          `json:"country"`
	Correspondent        string          `json:"correspondent"`
	Payer                msisdnParty     `json:"payer"`
	CustomerTimestamp    string          `json:"customerTimestamp"`
	StatementDescription string          `json:"statementDescription"`
	Metadata             []MetadataField `json:"metadata,omitempty"`
}

type payoutPayload struct {
	PayoutID             string          `json:"payoutId"`
	Amount               string          `json:"amount"`
	Currency             string          `json:"currency"`
	Country              string          `json:"country"`
	Correspondent        string          `json:"correspondent"`
	Recipient            msisdnParty     `json:"recipient"`
	CustomerTimestamp    string          `json:"customerTimestamp"`
	StatementDescription string          `json:"statementDescription"`
	Metadata             []MetadataField `json:"metadata,omitempty"`
}

type refundPayload struct {
	RefundID  string          `json:"refundId"`
	DepositID string          `json:"depositId"`
	Amount    string          `json:"amount"`
	Reason    string          `json:"reason"`
	Metadata  []MetadataField `json:"metadata,omitempty"`
}

// PawaPayClient implements Gateway against the real API. The HTTP timeout is
// the only outbound bound; callers must never hold a DB lock across a call.
type PawaPayClient struct {
	baseURL    string
	httpClient *http.Client
	signer     *SignatureService
}

func NewPawaPayClient() *PawaPayClient {
	baseURL := config.Config("PAWAPAY_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.sandbox.pawapay.io"
	}

	return &PawaPayClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		signer: NewSignatureService(
			config.Config("PAWAPAY_PRIVATE_KEY_PATH"),
			config.Config("PAWAPAY_API_KEY"),
			config.Config("PAWAPAY_API_TOKEN"),
			config.Config("PAWAPAY_WEBHOOK_SECRET"),
		),
	}
}

func (c *PawaPayClient) Signer() *SignatureService {
	return c.signer
}

func (c *PawaPayClient) Deposit(params DepositParams) (*ProviderResult, error) {
	phoneNumber, detected := FormatPhoneNumber(params.PhoneNumber)

	correspondent := params.Correspondent
	if correspondent == "" {
		correspondent = detected
	}

	country := params.Country
	if country == "" {
		country = "CMR"
	}
	currency := params.Currency
	if currency == "" {
		currency = "XAF"
	}

	description := params.Description
	if description == "" {
		description = "Payment #" + shortID(params.TransactionID)
	}

	payload := depositPayload{
		DepositID:            params.TransactionID,
		Amount:               FormatAmount(params.Amount),
		Currency:             currency,
		Country:              country,
		Correspondent:        correspondent,
		Payer:                msisdnParty{Type: "MSISDN", Address: msisdnAddress{Value: phoneNumber}},
		CustomerTimestamp:    time.Now().Format(time.RFC3339),
		StatementDescription: description,
		Metadata:             FormatMetadata(params.Metadata),
	}

	log.Printf("PawaPay deposit initiated: external_id=%s phone=%s amount=%s correspondent=%s",
		params.TransactionID, phoneNumber, payload.Amount, correspondent)

	raw, err := c.sendRequest(http.MethodPost, "deposits", payload)
	if err != nil {
		return nil, err
	}
	return resultFromResponse(raw), nil
}

func (c *PawaPayClient) Payout(params PayoutParams) (*ProviderResult, error) {
	phoneNumber, detected := FormatPhoneNumber(params.PhoneNumber)

	correspondent := params.Correspondent
	if correspondent == "" {
		correspondent = detected
	}

	country := params.Country
	if country == "" {
		country = "CMR"
	}
	currency := params.Currency
	if currency == "" {
		currency = "XAF"
	}

	description := params.Description
	if description == "" {
		description = "Payout #" + shortID(params.TransactionID)
	}

	payload := payoutPayload{
		PayoutID:             params.TransactionID,
		Amount:               FormatAmount(params.Amount),
		Currency:             currency,
		Country:              country,
		Correspondent:        correspondent,
		Recipient:            msisdnParty{Type: "MSISDN", Address: msisdnAddress{Value: phoneNumber}},
		CustomerTimestamp:    time.Now().Format(time.RFC3339),
		StatementDescription: description,
		Metadata:             FormatMetadata(params.Metadata),
	}

	log.Printf("PawaPay payout initiated: external_id=%s phone=%s amount=%s", params.TransactionID, phoneNumber, payload.Amount)

	raw, err := c.sendRequest(http.MethodPost, "payouts", payload)
	if err != nil {
		return nil, err
	}
	return resultFromResponse(raw), nil
}

func (c *PawaPayClient) Refund(params RefundParams) (*ProviderResult, error) {
	reason := params.Reason
	if reason == "" {
		reason = "Customer request"
	}

	payload := refundPayload{
		RefundID:  params.TransactionID,
		DepositID: params.DepositID,
		Amount:    FormatAmount(params.Amount),
		Reason:    reason,
		Metadata:  FormatMetadata(params.Metadata),
	}

	log.Printf("PawaPay refund initiated: external_id=%s deposit_id=%s amount=%s", params.TransactionID, params.DepositID, payload.Amount)

	raw, err := c.sendRequest(http.MethodPost, "refunds", payload)
	if err != nil {
		return nil, err
	}
	return resultFromResponse(raw), nil
}

func (c *PawaPayClient) CheckDepositStatus(depositID string) (*ProviderResult, error) {
	return c.checkStatus("deposits/" + depositID)
}

func (c *PawaPayClient) CheckPayoutStatus(payoutID string) (*ProviderResult, error) {
	return c.checkStatus("payouts/" + payoutID)
}

func (c *PawaPayClient) CheckRefundStatus(refundID string) (*ProviderResult, error) {
	return c.checkStatus("refunds/" + refundID)
}

func (c *PawaPayClient) checkStatus(endpoint string) (*ProviderResult, error) {
	raw, err := c.sendRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return resultFromResponse(raw), nil
}

func (c *PawaPayClient) sendRequest(method, endpoint string, payload interface{}) (interface{}, error) {
	var body []byte
	var err error

	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, utils.NewGatewayError("failed to encode provider request", err)
		}
	}

	path := "/" + strings.TrimLeft(endpoint, "/")
	url := c.baseURL + path

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return nil, utils.NewGatewayError("failed to build provider request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if err := c.signer.SignRequest(req, method, path, body); err != nil {
		return nil, utils.NewGatewayError("failed to sign provider request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewGatewayError("payment provider unreachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, utils.NewGatewayError("failed to read provider response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("🔥 PawaPay API error: status=%d endpoint=%s body=%s", resp.StatusCode, endpoint, string(respBody))
		return nil, utils.NewGatewayError(fmt.Sprintf("payment provider returned status %d", resp.StatusCode), nil)
	}

	var decoded interface{}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, utils.NewGatewayError("failed to decode provider response", err)
	}

	return decoded, nil
}

// resultFromResponse flattens the provider's response into a ProviderResult.
// Status queries may answer with a single-element array; the first element is
// the status record.
func resultFromResponse(decoded interface{}) *ProviderResult {
	data, ok := decoded.(map[string]interface{})
	if !ok {
		if list, isList := decoded.([]interface{}); isList && len(list) > 0 {
			data, ok = list[0].(map[string]interface{})
		}
		if !ok {
			return &ProviderResult{Raw: map[string]interface{}{}}
		}
	}

	result := &ProviderResult{Raw: data}

	if status, ok := data["status"].(string); ok {
		result.Status = NormalizeProviderStatus(status)
	}

	for _, key := range []string{"depositId", "payoutId", "refundId"} {
		if id, ok := data[key].(string); ok && id != "" {
			result.ProviderTransactionID = id
			break
		}
	}

	if reason, ok := data["rejectionReason"].(string); ok {
		result.RejectionReason = reason
	}
	if failure, ok := data["failureReason"].(map[string]interface{}); ok {
		if message, ok := failure["failureMessage"].(string); ok {
			result.FailureMessage = message
		}
	}

	return result
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}
