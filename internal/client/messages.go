package client

import "context"

// clientMessage is one unit of work for the client loop.
type clientMessage interface {
	isClientMessage()
}

type connectMsg struct {
	ctx      context.Context
	username string
	reply    chan error
}

type inviteMsg struct {
	target string
	reply  chan bool
}

type respondMsg struct {
	accept bool
	reply  chan bool
}

type moveMsg struct {
	position int
	reply    chan bool
}

type quitMsg struct {
	reply chan bool
}

// noticeExpiredMsg is posted by the notification timer.
type noticeExpiredMsg struct {
	gen uint64
}

// teardownMsg is posted by the post-game teardown timer.
type teardownMsg struct {
	gen     uint64
	message string
}

func (connectMsg) isClientMessage()       {}
func (inviteMsg) isClientMessage()        {}
func (respondMsg) isClientMessage()       {}
func (moveMsg) isClientMessage()          {}
func (quitMsg) isClientMessage()          {}
func (noticeExpiredMsg) isClientMessage() {}
func (teardownMsg) isClientMessage()      {}
