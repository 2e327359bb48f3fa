package cli

import (
	"context"
	"fmt"
)

// whoami спрашивает сервер, а не локальное состояние: это живая проверка
// того, что сессия действительно работает (включая прозрачный refresh)
func (c *Cli) runWhoami(ctx context.Context) error {
	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	c.io.Printf("%s <%s> (id %d)\n", user.Username, user.Email, user.ID)
	return nil
}
