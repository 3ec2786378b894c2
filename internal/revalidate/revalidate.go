// Package revalidate tells the public Next.js site to rebuild after the dashboard writes.
package revalidate

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/aTrapDeer/portfolio-admin/internal/querycache"
)

type payload struct {
	Secret   string `json:"secret"`
	Resource string `json:"resource"`
}

// Hook posts {secret, resource} to the site's revalidation URL.
type Hook struct {
	url    string
	secret string
	client *http.Client
	wg     sync.WaitGroup
}

// New returns nil when url is empty, which the binder treats as "no public site to poke".
func New(url, secret string, timeout time.Duration) *Hook {
	if url == "" {
		return nil
	}
	return &Hook{url: url, secret: secret, client: &http.Client{Timeout: timeout}}
}

// Revalidate fires the request in the background; the write it follows already succeeded.
func (h *Hook) Revalidate(ctx context.Context, key querycache.Key) {
	if h == nil {
		return
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := h.Trigger(context.WithoutCancel(ctx), key); err != nil {
			log.Warn().Err(err).Str("resource", string(key)).Msg("site revalidation failed")
			return
		}
		log.Debug().Str("resource", string(key)).Msg("site revalidation triggered")
	}()
}

// Trigger sends one revalidation request and waits for the answer.
func (h *Hook) Trigger(ctx context.Context, key querycache.Key) (err error) {
	var body []byte
	body, err = json.Marshal(payload{Secret: h.secret, Resource: string(key)})
	if err != nil {
		err = errors.Wrap(err, "failed to encode revalidation payload")
		return err
	}

	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		err = errors.Wrap(err, "failed to build revalidation request")
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp *http.Response
	resp, err = h.client.Do(req)
	if err != nil {
		err = errors.Wrapf(err, "failed to reach %s", h.url)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("revalidation answered %d", resp.StatusCode)
		return err
	}
	return err
}

// Wait blocks until in-flight revalidations finish. Used on shutdown.
func (h *Hook) Wait() {
	if h == nil {
		return
	}
	h.wg.Wait()
}
