// Package presenter turns repository records into response envelopes.
//
// Items render as the transformed record, collections as {"data": [...]},
// and pages add {"meta": {"pagination": {...}}}:
//
//	p := presenter.Presenter{Transformer: presenter.Fields("id", "name")}
//	body, _ := json.Marshal(p.Paginated(page))
package presenter
