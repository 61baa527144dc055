package edtypes

import (
	"fmt"
	"maps"
	"slices"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
)

// EntityStore хранит сущности документа. Ключи выдаются монотонно и не переиспользуются.
type EntityStore struct {
	entities map[EntityKey]*Entity
	next     EntityKey
}

func NewEntityStore() *EntityStore {
	return &EntityStore{entities: make(map[EntityKey]*Entity), next: 1}
}

func (s *EntityStore) Create(t EntityType, mutability Mutability, data EntityData) (EntityKey, error) {
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %q", apierrors.ErrInvalidEntityType, t)
	}
	if mutability == "" {
		mutability = Immutable
	}
	if !mutability.Valid() {
		return 0, fmt.Errorf("%w: mutability %q", apierrors.ErrInvalidEntityType, mutability)
	}

	key := s.next
	s.next++
	s.entities[key] = &Entity{
		Key:        key,
		Type:       t,
		Mutability: mutability,
		Data:       cloneData(data),
	}
	return key, nil
}

// Get возвращает копию сущности, изменения копии не попадают в хранилище.
func (s *EntityStore) Get(key EntityKey) (Entity, error) {
	if s == nil {
		return Entity{}, fmt.Errorf("%w: %d", apierrors.ErrUnknownEntityKey, key)
	}
	e, ok := s.entities[key]
	if !ok {
		return Entity{}, fmt.Errorf("%w: %d", apierrors.ErrUnknownEntityKey, key)
	}
	res := *e
	res.Data = cloneData(e.Data)
	return res, nil
}

func (s *EntityStore) Has(key EntityKey) bool {
	if s == nil {
		return false
	}
	_, ok := s.entities[key]
	return ok
}

// UpdateData сливает patch с данными сущности на месте.
// Для nil хранилища любой ключ неизвестен.
func (s *EntityStore) UpdateData(key EntityKey, patch EntityData) error {
	if s == nil {
		return fmt.Errorf("%w: %d", apierrors.ErrUnknownEntityKey, key)
	}
	e, ok := s.entities[key]
	if !ok {
		return fmt.Errorf("%w: %d", apierrors.ErrUnknownEntityKey, key)
	}
	if e.Data == nil {
		e.Data = make(EntityData, len(patch))
	}
	maps.Copy(e.Data, patch)
	return nil
}

// Keys возвращает ключи всех сущностей по возрастанию.
func (s *EntityStore) Keys() []EntityKey {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.entities))
}

func (s *EntityStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entities)
}

func (s *EntityStore) Clone() *EntityStore {
	if s == nil {
		return NewEntityStore()
	}
	res := &EntityStore{entities: make(map[EntityKey]*Entity, len(s.entities)), next: s.next}
	for k, e := range s.entities {
		c := *e
		c.Data = cloneData(e.Data)
		res.entities[k] = &c
	}
	return res
}

func cloneData(data EntityData) EntityData {
	if data == nil {
		return EntityData{}
	}
	return maps.Clone(data)
}
