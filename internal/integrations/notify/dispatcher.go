package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Dispatcher отправляет уведомления в NotificationService в режиме fire-and-forget.
// Отправка выполняется в отдельной горутине и никогда не блокирует вызывающий код:
// сбой доставки логируется, но не влияет на результат бизнес-операции.
type Dispatcher struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	log        Logger
}

// NewDispatcher создает новый диспетчер уведомлений
func NewDispatcher(baseURL string, timeout time.Duration, log Logger) *Dispatcher {
	return &Dispatcher{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
		log:     log,
	}
}

// Dispatch отправляет событие асинхронно.
// Контекст запроса не используется: уведомление должно уйти даже после
// завершения HTTP-запроса, породившего событие.
func (d *Dispatcher) Dispatch(event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.send(ctx, event); err != nil {
			d.log.Error("Failed to dispatch notification %s for client_id=%d: %v",
				event.Type, event.ClientID, err)
			return
		}

		d.log.Info("Notification dispatched: type=%s, client_id=%d", event.Type, event.ClientID)
	}()
}

func (d *Dispatcher) send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %v", err)
	}

	url := fmt.Sprintf("%s/internal/notifications", d.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
