package registry

import (
	"github.com/samber/lo"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const roomIDLength = 6

// Registry keeps the active rooms in memory.
// It is not safe for concurrent use; the dispatcher serializes all access.
type Registry struct {
	rooms map[string]*entity.Room
	order []string
}

func New() *Registry {
	return &Registry{
		rooms: make(map[string]*entity.Room),
	}
}

// Create stores a new waiting room under an unused id and returns that id.
func (that *Registry) Create() string {
	id := lo.RandomString(roomIDLength, lo.AlphanumericCharset)
	for that.exists(id) {
		id = lo.RandomString(roomIDLength, lo.AlphanumericCharset)
	}

	that.rooms[id] = entity.NewRoom(id)
	that.order = append(that.order, id)

	return id
}

func (that *Registry) Get(id string) (*entity.Room, bool) {
	room, ok := that.rooms[id]
	return room, ok
}

func (that *Registry) Delete(id string) {
	if !that.exists(id) {
		return
	}

	delete(that.rooms, id)
	that.order = lo.Without(that.order, id)
}

// Rooms returns the active rooms in creation order.
func (that *Registry) Rooms() []*entity.Room {
	return lo.Map(that.order, func(id string, _ int) *entity.Room {
		return that.rooms[id]
	})
}

func (that *Registry) Len() int {
	return len(that.rooms)
}

func (that *Registry) exists(id string) bool {
	_, ok := that.rooms[id]
	return ok
}
