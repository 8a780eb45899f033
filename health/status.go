package health

// StatusKind is the message kind of StatusChange on a mediator.
const StatusKind = "health.status"

// StatusChange records a component's health as written by one SetHealth call.
type StatusChange struct {
	Component string
	Healthy   bool
}

// Kind implements mediator.Message.
func (StatusChange) Kind() string {
	return StatusKind
}

// String formats the change as "component: healthy" or
// "component: unhealthy".
func (c StatusChange) String() string {
	return c.Component + ": " + statusText(c.Healthy)
}

func statusText(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "unhealthy"
}
