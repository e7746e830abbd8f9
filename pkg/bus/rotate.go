package bus

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"agora/pkg/protocol"
	"agora/pkg/store"
)

func kindFilter(kind string) store.Filter {
	return store.Filter{Kind: kind, Limit: 1}
}

var rotationSuffix = regexp.MustCompile(`^(.+)-r(\d+)$`)

// splitRotation separates a room name from its rotation generation.
// "chat" is ("chat", 1); "chat-r3" is ("chat", 3).
func splitRotation(room string) (string, int) {
	m := rotationSuffix.FindStringSubmatch(room)
	if m == nil {
		return room, 1
	}
	gen, err := strconv.Atoi(m[2])
	if err != nil || gen < 2 {
		return room, 1
	}
	return m[1], gen
}

// resolveRoom redirects appends away from rooms that have grown past the
// rotation threshold. Successors are named <room>-r2, <room>-r3, ... and the
// walk is deterministic, so every writer lands on the same active room
// without shared rotation state. Count failures fall back to the requested
// room: rotation is an optimization, never a reason to drop a message.
func (b *Bus) resolveRoom(ctx context.Context, room string) string {
	if room == "" {
		return protocol.RoomCoordination
	}

	base, gen := splitRotation(room)
	for {
		n, err := b.store.RoomCount(ctx, room)
		if err != nil || n < b.cfg.RoomRotateAt {
			return room
		}
		gen++
		room = fmt.Sprintf("%s-r%d", base, gen)
	}
}

// rotateSweep announces any room that crossed the rotation threshold since
// the last sweep. The notice lands in the full room itself so existing
// listeners learn where traffic moved.
func (b *Bus) rotateSweep(ctx context.Context) error {
	rooms, err := b.store.Rooms(ctx)
	if err != nil {
		return err
	}

	for _, room := range rooms {
		n, err := b.store.RoomCount(ctx, room)
		if err != nil {
			return err
		}
		if n < b.cfg.RoomRotateAt {
			continue
		}

		successor := b.resolveRoom(ctx, room)
		if successor == room {
			continue
		}

		// Skip rooms that already carry a rotation notice.
		prior, err := b.store.Read(ctx, room, kindFilter(protocol.KindRoomRotated))
		if err != nil {
			return err
		}
		if len(prior) > 0 {
			continue
		}

		body := fmt.Sprintf("room full (%d messages); new traffic flows to %s", n, successor)
		if _, err := b.store.Append(ctx, room, body, protocol.MessageContext{
			Kind:   protocol.KindRoomRotated,
			Target: successor,
		}); err != nil {
			return err
		}
	}
	return nil
}
