// internal/domain/payload.go
package domain

// Upstream sources nest line items under different keys.
var lineItemKeys = []string{"items", "lineItems", "line_items", "itemList", "item_list"}

// NewRecordFromPayload builds a Record from one raw upstream object. Line
// items are lifted out of the payload under any of the known keys; the rest
// of the object stays in Data for the field resolvers.
func NewRecordFromPayload(id string, kind RecordKind, payload map[string]any) Record {
	rec := Record{ID: id, Kind: kind, Data: payload}
	if payload == nil {
		rec.Data = map[string]any{}
		return rec
	}

	for _, key := range lineItemKeys {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			continue
		}
		for _, entry := range list {
			if itemData, ok := entry.(map[string]any); ok {
				rec.Items = append(rec.Items, LineItem{Data: itemData})
			}
		}
		break
	}

	return rec
}
