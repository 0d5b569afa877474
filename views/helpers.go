package views

import (
	"context"

	"github.com/survivorpool/lms-app/internal/middleware"
	users "github.com/survivorpool/lms-app/internal/user"
)

func GetUser(ctx context.Context) *users.User {
	return middleware.GetAuthenticatedUser(ctx)
}
