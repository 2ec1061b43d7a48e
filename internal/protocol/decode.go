package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

const MaxNameLength = 32

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")
)

type nameFields struct {
	Name string `validate:"required,maxname"`
}

type moveFields struct {
	Cell *int `validate:"required,min=0,max=8"`
}

var validate = newValidator()

// newValidator - registers maxname, the MaxNameLength limit counted in runes.
func newValidator() *validator.Validate {
	v := validator.New()

	if err := v.RegisterValidation("maxname", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) <= MaxNameLength
	}); err != nil {
		panic(fmt.Errorf("failed to register name validation: %w", err))
	}

	return v
}

// intentRules lists every type a client may send, with the check of its fields.
var intentRules = map[string]func(msg *Message) error{
	TypeRegister:   validateName,
	TypeCreateRoom: validateName,
	TypeJoinRoom:   validateName,
	TypeMove:       validateMove,
	TypeRestart:    nil,
	TypeLeaveRoom:  nil,
	TypeLogout:     nil,
}

// Decode - parses a client frame into an intent message.
// ErrMalformed and ErrUnknownType mean the frame must be dropped, other errors deserve a reply.
func Decode(raw []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	rule, ok := intentRules[msg.Type]
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}

	msg = sanitize(msg)

	if rule != nil {
		if err := rule(&msg); err != nil {
			return msg, err
		}
	}

	return msg, nil
}

// IsDroppable - reports whether a Decode error means the frame is ignored without a reply.
func IsDroppable(err error) bool {
	return errors.Is(err, ErrMalformed) || errors.Is(err, ErrUnknownType)
}

// sanitize keeps only the fields a client intent may carry.
func sanitize(msg Message) Message {
	return Message{
		Type: msg.Type,
		Name: strings.TrimSpace(msg.Name),
		Mark: msg.Mark,
		Cell: msg.Cell,
	}
}

func validateName(msg *Message) error {
	if err := validate.Struct(nameFields{Name: msg.Name}); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidName, err)
	}
	return nil
}

func validateMove(msg *Message) error {
	if err := validate.Struct(moveFields{Cell: msg.Cell}); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidCell, err)
	}
	return nil
}

// ValidateName - checks an already trimmed player or room name.
func ValidateName(name string) error {
	return validateName(&Message{Name: name})
}
