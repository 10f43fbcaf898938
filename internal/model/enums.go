package model

type EventType string

const (
	EventPageView       EventType = "page_view"
	EventPhotoClick     EventType = "photo_click"
	EventLanguageChange EventType = "language_change"
	EventWhatsAppClick  EventType = "whatsapp_click"
	EventVideoClick     EventType = "video_click"
	EventTourClick      EventType = "tour_click"
	EventMapInteraction EventType = "map_interaction"
	EventPageLeave      EventType = "page_leave"
)

// EventTypes lists every accepted event type in display order.
var EventTypes = []EventType{
	EventPageView,
	EventPhotoClick,
	EventLanguageChange,
	EventWhatsAppClick,
	EventVideoClick,
	EventTourClick,
	EventMapInteraction,
	EventPageLeave,
}

func (t EventType) IsValid() bool {
	for _, v := range EventTypes {
		if t == v {
			return true
		}
	}
	return false
}

// EventTypeNames returns the accepted event types as plain strings.
func EventTypeNames() []string {
	names := make([]string, len(EventTypes))
	for i, t := range EventTypes {
		names[i] = string(t)
	}
	return names
}
