package reminder

import "context"

type ctxKey int

const (
	slotKey ctxKey = iota
	userKey
	deliveryKey
)

// WithSlot tags ctx with the slot of the trigger being dispatched.
func WithSlot(ctx context.Context, slot int) context.Context {
	return context.WithValue(ctx, slotKey, slot)
}

func SlotFrom(ctx context.Context) (int, bool) {
	slot, ok := ctx.Value(slotKey).(int)
	return slot, ok
}

func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

func UserFrom(ctx context.Context) string {
	userID, _ := ctx.Value(userKey).(string)
	return userID
}

// WithDeliveryID tags ctx with the correlation id shared by every handler
// of one dispatch.
func WithDeliveryID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, deliveryKey, id)
}

func DeliveryIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(deliveryKey).(string)
	return id
}
