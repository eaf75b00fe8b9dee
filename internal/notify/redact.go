package notify

import (
	"errors"
	"fmt"
	"net/url"
)

// redactURL strips the request URL from transport errors since it
// carries the bot token
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s telegram API: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
