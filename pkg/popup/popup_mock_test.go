// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package popup_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	testingclock "k8s.io/utils/clock/testing"

	poperrors "github.com/stacklok/popup-login/pkg/errors"
	"github.com/stacklok/popup-login/pkg/popup"
	"github.com/stacklok/popup-login/pkg/popup/mocks"
)

func TestOpenBlockedPopup(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	opener := mocks.NewMockOpener(ctrl)
	opener.EXPECT().
		Open(gomock.Any(), "https://idp.example/authorize?client_id=X", "blocked", "height=800,width=1200").
		Return(nil, errors.New("popups are disabled"))

	s, err := popup.Open(context.Background(), opener, popup.AuthRequest{ClientID: "X"},
		popup.WindowOptions{Height: 800, Width: 1200}, "https://idp.example/authorize", "blocked")
	require.NoError(t, err)

	_, err = s.Completion().Result()
	require.Error(t, err)
	assert.True(t, poperrors.IsPopupBlocked(err))
	assert.Equal(t, popup.StateRejected, s.State())
}

func TestSessionWithMockWindow(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	window := mocks.NewMockWindow(ctrl)
	opener := mocks.NewMockOpener(ctrl)
	opener.EXPECT().Open(gomock.Any(), gomock.Any(), "mocked", gomock.Any()).Return(window, nil)

	callback, err := url.Parse("http://localhost:8080/callback?code=abc123&user=alice")
	require.NoError(t, err)

	gomock.InOrder(
		window.EXPECT().Closed().Return(false),
		window.EXPECT().Location().Return(nil, popup.ErrLocationUnreadable),
		window.EXPECT().Closed().Return(false),
		window.EXPECT().Location().Return(callback, nil),
		window.EXPECT().Close().Return(nil),
	)

	clk := testingclock.NewFakeClock(time.Now())
	s, err := popup.Open(context.Background(), opener,
		popup.AuthRequest{ClientID: "X", RedirectURI: "http://localhost:8080/callback"},
		popup.WindowOptions{}, "https://idp.example/authorize", "mocked",
		popup.WithClock(clk), popup.WithPollInterval(time.Second))
	require.NoError(t, err)

	clk.Step(time.Second)
	require.Eventually(t, func() bool { return s.Ticks() == 1 }, time.Second, time.Millisecond)
	clk.Step(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := s.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc123", result.Get("code"))
	assert.Equal(t, "alice", result.Get("user"))

	<-s.Released()
	require.NoError(t, s.Close())
}
