package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client клиент для работы с платежным шлюзом
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр платежного клиента
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Authorize авторизует платеж.
// При instant_capture шлюз сразу списывает сумму и возвращает Captured=true,
// иначе средства замораживаются до Capture или Refund.
func (c *Client) Authorize(ctx context.Context, request AuthorizeRequest) (*AuthorizeResponse, error) {
	url := fmt.Sprintf("%s/internal/payments/authorize", c.baseURL)

	var response AuthorizeResponse
	if err := c.doPost(ctx, url, request, &response); err != nil {
		return nil, err
	}

	c.log.Info("Payment authorized: client_id=%d, auth_id=%s, captured=%t",
		request.ClientID, response.AuthID, response.Captured)

	return &response, nil
}

// Capture списывает ранее авторизованную сумму
func (c *Client) Capture(ctx context.Context, authID string, amount float64) error {
	url := fmt.Sprintf("%s/internal/payments/capture", c.baseURL)

	if err := c.doPost(ctx, url, CaptureRequest{AuthID: authID, Amount: amount}, nil); err != nil {
		return err
	}

	c.log.Info("Payment captured: auth_id=%s, amount=%.2f", authID, amount)
	return nil
}

// Refund возвращает средства по авторизации
func (c *Client) Refund(ctx context.Context, authID string, amount float64) error {
	url := fmt.Sprintf("%s/internal/payments/refund", c.baseURL)

	if err := c.doPost(ctx, url, RefundRequest{AuthID: authID, Amount: amount}, nil); err != nil {
		return err
	}

	c.log.Info("Payment refunded: auth_id=%s, amount=%.2f", authID, amount)
	return nil
}

func (c *Client) doPost(ctx context.Context, url string, in interface{}, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusPaymentRequired:
		return ErrPaymentDeclined
	case http.StatusNotFound:
		return ErrAuthNotFound
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return nil
}
