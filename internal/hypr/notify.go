package hypr

import (
	"context"
	"strconv"
	"strings"
)

// Notification colors used by the indicator.
const (
	ColorInfo  = "rgb(89b4fa)"
	ColorError = "rgb(f38ba8)"
)

// Notify shows a compositor notification. An empty color selects ColorInfo.
func Notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = ColorInfo
	}
	return dispatch(ctx, "notify", strconv.Itoa(icon), strconv.Itoa(timeoutMS), color, text)
}

// DismissNotify clears all visible notifications.
func DismissNotify(ctx context.Context) error {
	return dispatch(ctx, "dismissnotify")
}
