package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locpulse/pkg/model"
)

type fakeClient struct {
	id       string
	posted   []model.Message
	focused  int
	postErr  error
}

func (c *fakeClient) ID() string { return c.id }

func (c *fakeClient) Post(msg model.Message) error {
	if c.postErr != nil {
		return c.postErr
	}
	c.posted = append(c.posted, msg)
	return nil
}

func (c *fakeClient) Focus() error {
	c.focused++
	return nil
}

func (c *fakeClient) byType(t model.MessageType) []model.Message {
	var out []model.Message
	for _, m := range c.posted {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

type fakeOpener struct {
	opened []string
}

func (o *fakeOpener) OpenWindow(url string) error {
	o.opened = append(o.opened, url)
	return nil
}

func displayedNotification() model.Notification {
	return model.Notification{
		Title:     "You've moved!",
		PlaceName: "Spremberg",
		Data: model.NotificationData{
			Lat: 51.5696, Lng: 14.3739,
			PlaceName: "Spremberg",
			URL:       "/settings/profile",
			Tab:       "location",
		},
	}
}

func TestCloseDismissesWithoutNavigation(t *testing.T) {
	reg := NewRegistry()
	client := &fakeClient{id: "a"}
	reg.Add(client)
	opener := &fakeOpener{}
	r := NewClickRouter(reg, opener, "/settings/profile", "location")

	r.Displayed(displayedNotification())
	r.Click(model.ClickIntent{Action: model.ActionClose})

	assert.Equal(t, StateDismissed, r.State())
	assert.Empty(t, client.byType(model.MsgNavigate))
	assert.Empty(t, opener.opened)
	assert.Zero(t, client.focused)
	// Place name still syncs the record to open pages.
	assert.Len(t, client.byType(model.MsgUpdateLastNotified), 1)
}

func TestUpdateNavigatesExactlyOneClient(t *testing.T) {
	reg := NewRegistry()
	client := &fakeClient{id: "a"}
	reg.Add(client)
	opener := &fakeOpener{}
	r := NewClickRouter(reg, opener, "/settings/profile", "location")

	r.Displayed(displayedNotification())
	r.Click(model.ClickIntent{Action: model.ActionUpdate})

	assert.Equal(t, StateActionTriggered, r.State())
	navs := client.byType(model.MsgNavigate)
	require.Len(t, navs, 1)

	var p model.NavigatePayload
	require.NoError(t, unmarshalPayload(navs[0], &p))
	assert.Equal(t, "/settings/profile", p.URL)
	assert.Equal(t, "location", p.Tab)
	assert.Equal(t, 1, client.focused)
	assert.Empty(t, opener.opened)
}

func TestBodyClickActsLikeUpdate(t *testing.T) {
	reg := NewRegistry()
	client := &fakeClient{id: "a"}
	reg.Add(client)
	r := NewClickRouter(reg, &fakeOpener{}, "/settings/profile", "location")

	r.Displayed(displayedNotification())
	r.Click(model.ClickIntent{Action: model.ActionDefault})

	assert.Equal(t, StateActionTriggered, r.State())
	assert.Len(t, client.byType(model.MsgNavigate), 1)
}

func TestNoClientsOpensExactlyOneWindow(t *testing.T) {
	reg := NewRegistry()
	opener := &fakeOpener{}
	r := NewClickRouter(reg, opener, "/settings/profile", "location")

	r.Displayed(displayedNotification())
	r.Click(model.ClickIntent{Action: model.ActionUpdate})

	require.Len(t, opener.opened, 1)
	assert.Equal(t, "/settings/profile", opener.opened[0])
}

func TestPlaceNameBroadcastsToAllClients(t *testing.T) {
	reg := NewRegistry()
	a := &fakeClient{id: "a"}
	b := &fakeClient{id: "b"}
	reg.Add(a)
	reg.Add(b)
	r := NewClickRouter(reg, &fakeOpener{}, "/settings/profile", "location")

	r.Displayed(displayedNotification())
	r.Click(model.ClickIntent{Action: model.ActionUpdate})

	for _, c := range []*fakeClient{a, b} {
		ups := c.byType(model.MsgUpdateLastNotified)
		require.Len(t, ups, 1, "client %s", c.id)
		var p model.UpdateLastNotifiedPayload
		require.NoError(t, unmarshalPayload(ups[0], &p))
		assert.Equal(t, "Spremberg", p.PlaceName)
	}
	// Only one of the two clients navigates.
	assert.Equal(t, 1, len(a.byType(model.MsgNavigate))+len(b.byType(model.MsgNavigate)))
}

func TestSettledNotificationIgnoresFurtherClicks(t *testing.T) {
	reg := NewRegistry()
	client := &fakeClient{id: "a"}
	reg.Add(client)
	r := NewClickRouter(reg, &fakeOpener{}, "/settings/profile", "location")

	r.Displayed(displayedNotification())
	r.Click(model.ClickIntent{Action: model.ActionUpdate})
	r.Click(model.ClickIntent{Action: model.ActionUpdate})

	assert.Len(t, client.byType(model.MsgNavigate), 1)
}
