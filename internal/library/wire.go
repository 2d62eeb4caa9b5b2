package library

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mrlokans/bookshelf/internal/entities"
)

var ErrUnknownAction = errors.New("unknown action type")

// wireAliases maps alternate action names older clients send to the
// canonical ones.
var wireAliases = map[string]string{
	"GANAR_PUNTOS":  TypeEarnPoints,
	"GASTAR_PUNTOS": TypeSpendPoints,
}

// Envelope is the JSON form of an action: {"type": "...", "payload": {...}}.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode wraps an action into its envelope.
func Encode(action Action) (Envelope, error) {
	payload, err := json.Marshal(action)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", action.Type(), err)
	}
	return Envelope{Type: action.Type(), Payload: payload}, nil
}

// Decode turns an envelope back into a typed action.
func (e Envelope) Decode() (Action, error) {
	return DecodeAction(e.Type, e.Payload)
}

// DecodeAction builds the action named actionType from its JSON payload.
// An empty payload yields the zero action.
func DecodeAction(actionType string, payload json.RawMessage) (Action, error) {
	if canonical, ok := wireAliases[actionType]; ok {
		actionType = canonical
	}
	switch actionType {
	case TypeAddBook:
		return decodeAs[AddBook](payload)
	case TypeUpdateBook:
		return decodeAs[UpdateBook](payload)
	case TypeDeleteBook:
		return decodeAs[DeleteBook](payload)
	case TypeChangeBookState:
		return decodeAs[ChangeBookState](payload)
	case TypeAddSaga:
		return decodeAs[AddSaga](payload)
	case TypeUpdateSaga:
		return decodeAs[UpdateSaga](payload)
	case TypeDeleteSaga:
		return decodeAs[DeleteSaga](payload)
	case TypeLinkBookSaga:
		return decodeAs[LinkBookToSaga](payload)
	case TypeUnlinkBookSaga:
		return decodeAs[UnlinkBookFromSaga](payload)
	case TypeAddScan:
		return decodeAs[AddScan](payload)
	case TypeClearScanHistory:
		return decodeAs[ClearScanHistory](payload)
	case TypeAddSearch:
		return decodeAs[AddSearch](payload)
	case TypeClearSearchHistory:
		return decodeAs[ClearSearchHistory](payload)
	case TypeImportData:
		return decodeAs[ImportData](payload)
	case TypeUpdateConfig:
		return decodeAs[UpdateConfig](payload)
	case TypeEarnPoints:
		return decodeAs[EarnPoints](payload)
	case TypeSpendPoints:
		return decodeAs[SpendPoints](payload)
	case TypePurchaseWithPoints:
		return decodeAs[PurchaseWithPoints](payload)
	case TypeResetPoints:
		return decodeAs[ResetPoints](payload)
	case TypeAddReading:
		return decodeAs[AddReading](payload)
	case TypeDeleteReading:
		return decodeAs[DeleteReading](payload)
	case TypeLoanBook:
		return decodeAs[LoanBook](payload)
	case TypeReturnBook:
		return decodeAs[ReturnBook](payload)
	case TypePushNotification:
		return decodeAs[PushNotification](payload)
	case TypeDismissNotification:
		return decodeAs[DismissNotification](payload)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, actionType)
}

func decodeAs[T Action](payload json.RawMessage) (Action, error) {
	var action T
	if len(payload) == 0 || string(payload) == "null" {
		return action, nil
	}
	if err := json.Unmarshal(payload, &action); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", action.Type(), err)
	}
	return action, nil
}

// pointsPayload accepts both "amount" and "cantidad".
type pointsPayload struct {
	Amount   *int `json:"amount"`
	Cantidad *int `json:"cantidad"`
}

func decodePoints(data []byte) (int, error) {
	var p pointsPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, err
	}
	switch {
	case p.Amount != nil:
		return *p.Amount, nil
	case p.Cantidad != nil:
		return *p.Cantidad, nil
	}
	return 0, nil
}

func (a *EarnPoints) UnmarshalJSON(data []byte) error {
	amount, err := decodePoints(data)
	a.Amount = amount
	return err
}

func (a *SpendPoints) UnmarshalJSON(data []byte) error {
	amount, err := decodePoints(data)
	a.Amount = amount
	return err
}

// UnmarshalJSON also accepts the book list under "libros".
func (a *ImportData) UnmarshalJSON(data []byte) error {
	type plain ImportData
	var aux struct {
		plain
		Libros *[]entities.Book `json:"libros"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = ImportData(aux.plain)
	if a.Books == nil {
		a.Books = aux.Libros
	}
	return nil
}
