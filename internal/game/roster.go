package game

import "time"

// Roster tracks the players seated in a session and the order they
// connected in. The earliest connection still present is the host.
type Roster struct {
	players map[string]*Player
	joined  []joinStamp
}

type joinStamp struct {
	id string
	at time.Time
}

// NewRoster creates an empty roster
func NewRoster() *Roster {
	return &Roster{players: make(map[string]*Player)}
}

// Add seats a player, returning false if the id is already present
func (r *Roster) Add(p *Player, at time.Time) bool {
	if _, ok := r.players[p.ID]; ok {
		return false
	}
	r.players[p.ID] = p
	r.joined = append(r.joined, joinStamp{id: p.ID, at: at})
	return true
}

// Remove unseats a player
func (r *Roster) Remove(id string) (*Player, bool) {
	p, ok := r.players[id]
	if !ok {
		return nil, false
	}
	delete(r.players, id)
	for i, js := range r.joined {
		if js.id == id {
			r.joined = append(r.joined[:i], r.joined[i+1:]...)
			break
		}
	}
	return p, true
}

// Get returns the player with the given id
func (r *Roster) Get(id string) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// Len returns the number of seated players
func (r *Roster) Len() int {
	return len(r.players)
}

// Host returns the id of the earliest connected player, or "" when empty
func (r *Roster) Host() string {
	if len(r.joined) == 0 {
		return ""
	}
	return r.joined[0].id
}

// JoinedAt returns when the player connected
func (r *Roster) JoinedAt(id string) time.Time {
	for _, js := range r.joined {
		if js.id == id {
			return js.at
		}
	}
	return time.Time{}
}

// View returns the broadcast form of a player
func (r *Roster) View(id string) (PlayerView, bool) {
	p, ok := r.players[id]
	if !ok {
		return PlayerView{}, false
	}
	return p.view(id == r.Host(), r.JoinedAt(id)), true
}

// Views returns every player keyed by id
func (r *Roster) Views() map[string]PlayerView {
	host := r.Host()
	views := make(map[string]PlayerView, len(r.players))
	for _, js := range r.joined {
		views[js.id] = r.players[js.id].view(js.id == host, js.at)
	}
	return views
}
