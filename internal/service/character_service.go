package service

import (
	"context"
	"errors"
	"strings"

	"tabletop-companion/internal/domain"
	"tabletop-companion/internal/repository"
)

// ErrCharacterNotFound covers both missing characters and characters owned
// by someone else.
var ErrCharacterNotFound = errors.New("character not found")

// CharacterInput is a decoded request body. name, class and level are core
// fields; every other key lands in the character's details.
type CharacterInput map[string]any

// CharacterService coordinates ownership-scoped character operations.
type CharacterService interface {
	Create(ctx context.Context, ownerID int64, input CharacterInput) (*domain.Character, error)
	List(ctx context.Context, ownerID int64) ([]domain.Character, error)
	Get(ctx context.Context, ownerID, id int64) (*domain.Character, error)
	Update(ctx context.Context, ownerID, id int64, input CharacterInput) (*domain.Character, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

type intRule struct {
	field   string
	message string
	min     int
	max     int // 0 means unbounded
}

var numericRules = []intRule{
	{field: "level", message: "Level must be between 1 and 20", min: 1, max: 20},
	{field: "strength", message: "Strength must be between 1 and 20", min: 1, max: 20},
	{field: "dexterity", message: "Dexterity must be between 1 and 20", min: 1, max: 20},
	{field: "constitution", message: "Constitution must be between 1 and 20", min: 1, max: 20},
	{field: "intelligence", message: "Intelligence must be between 1 and 20", min: 1, max: 20},
	{field: "wisdom", message: "Wisdom must be between 1 and 20", min: 1, max: 20},
	{field: "charisma", message: "Charisma must be between 1 and 20", min: 1, max: 20},
	{field: "hitPoints", message: "Hit points must be at least 1", min: 1},
}

// Keys the client may echo back from a read but never sets.
var reservedKeys = map[string]struct{}{
	"id":        {},
	"userId":    {},
	"createdAt": {},
	"updatedAt": {},
	"details":   {},
}

type characterService struct {
	characters repository.CharacterRepository
}

func NewCharacterService(characters repository.CharacterRepository) CharacterService {
	return &characterService{characters: characters}
}

func (s *characterService) Create(ctx context.Context, ownerID int64, input CharacterInput) (*domain.Character, error) {
	p, err := parseInput(input, true)
	if err != nil {
		return nil, err
	}

	character := &domain.Character{
		UserID:  ownerID,
		Name:    *p.name,
		Class:   *p.class,
		Level:   *p.level,
		Details: domain.Attributes{},
	}
	for k, v := range p.details {
		if v != nil {
			character.Details[k] = v
		}
	}

	if _, err := s.characters.Create(ctx, character); err != nil {
		return nil, err
	}
	return character, nil
}

func (s *characterService) List(ctx context.Context, ownerID int64) ([]domain.Character, error) {
	characters, err := s.characters.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if characters == nil {
		characters = []domain.Character{}
	}
	return characters, nil
}

func (s *characterService) Get(ctx context.Context, ownerID, id int64) (*domain.Character, error) {
	character, err := s.characters.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, mapCharacterErr(err)
	}
	return character, nil
}

func (s *characterService) Update(ctx context.Context, ownerID, id int64, input CharacterInput) (*domain.Character, error) {
	p, err := parseInput(input, false)
	if err != nil {
		return nil, err
	}

	character, err := s.characters.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, mapCharacterErr(err)
	}

	if p.name != nil {
		character.Name = *p.name
	}
	if p.class != nil {
		character.Class = *p.class
	}
	if p.level != nil {
		character.Level = *p.level
	}
	if character.Details == nil {
		character.Details = domain.Attributes{}
	}
	for k, v := range p.details {
		if v == nil {
			delete(character.Details, k)
			continue
		}
		character.Details[k] = v
	}

	if err := s.characters.UpdateOwned(ctx, character); err != nil {
		return nil, mapCharacterErr(err)
	}
	return character, nil
}

func (s *characterService) Delete(ctx context.Context, ownerID, id int64) error {
	return mapCharacterErr(s.characters.DeleteOwned(ctx, id, ownerID))
}

func mapCharacterErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCharacterNotFound
	}
	return err
}

type parsedInput struct {
	name    *string
	class   *string
	level   *int
	details domain.Attributes
}

// parseInput splits input into core fields and details and validates both.
// A nil core field counts as absent; a nil detail is kept so updates can
// remove the key.
func parseInput(input CharacterInput, create bool) (*parsedInput, error) {
	p := &parsedInput{details: domain.Attributes{}}
	verr := &ValidationError{}

	p.name = parseText(input["name"], "name", "Name", create, verr)
	p.class = parseText(input["class"], "class", "Class", create, verr)

	for _, rule := range numericRules {
		raw, ok := input[rule.field]
		if !ok || raw == nil {
			if create {
				verr.add(rule.field, rule.message)
			}
			continue
		}
		n, ok := asInt(raw)
		if !ok || n < rule.min || (rule.max > 0 && n > rule.max) {
			verr.add(rule.field, rule.message)
			continue
		}
		if rule.field == "level" {
			p.level = &n
			continue
		}
		p.details[rule.field] = n
	}

	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	for k, v := range input {
		if k == "name" || k == "class" || k == "level" {
			continue
		}
		if _, reserved := reservedKeys[k]; reserved {
			continue
		}
		if _, done := p.details[k]; done {
			continue
		}
		p.details[k] = domain.NormalizeValue(v)
	}
	return p, nil
}

func parseText(raw any, field, label string, create bool, verr *ValidationError) *string {
	if raw == nil {
		if create {
			verr.add(field, label+" is required")
		}
		return nil
	}
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		if create {
			verr.add(field, label+" is required")
		} else {
			verr.add(field, label+" cannot be empty")
		}
		return nil
	}
	return &s
}
