package workout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Client calls a remote workout-completion endpoint.
type Client struct {
	baseURL string
	timeout time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

// CompleteWorkout posts the payload once. There is no retry. The request
// timeout is capped by the context deadline, and a cancelled context returns
// without waiting for the response.
func (c *Client) CompleteWorkout(ctx context.Context, p Payload, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return context.DeadlineExceeded
		}
		if remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(c.baseURL + "/workouts/complete")
	agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	agent.JSON(p)
	agent.Timeout(timeout)

	type response struct {
		code int
		body []byte
		errs []error
	}
	done := make(chan response, 1)
	go func() {
		code, body, errs := agent.Bytes()
		done <- response{code: code, body: body, errs: errs}
	}()

	var res response
	select {
	case res = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if len(res.errs) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("complete workout: %w", errors.Join(res.errs...))
	}
	switch {
	case res.code == fiber.StatusConflict:
		return ErrAlreadyCompleted
	case res.code < 200 || res.code >= 300:
		return fmt.Errorf("complete workout: status %d: %s", res.code, strings.TrimSpace(string(res.body)))
	}
	return nil
}

type TokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

// LocalCompleter completes workouts in-process against the service's own store.
type LocalCompleter struct {
	svc    *Service
	tokens TokenValidator
}

func NewLocalCompleter(svc *Service, tokens TokenValidator) *LocalCompleter {
	return &LocalCompleter{svc: svc, tokens: tokens}
}

func (l *LocalCompleter) CompleteWorkout(ctx context.Context, p Payload, token string) error {
	userID, err := l.tokens.ValidateAccessToken(token)
	if err != nil {
		return fmt.Errorf("complete workout: %w", err)
	}
	_, err = l.svc.Complete(ctx, userID, p)
	return err
}
