//go:build linux
// +build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor - Linux epoll implementation.

package reactor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-tcp/api"
	"golang.org/x/sys/unix"
)

// epollPoller implements api.Poller on top of epoll(7). An eventfd is kept
// in the interest set so other goroutines can interrupt Wait.
type epollPoller struct {
	epfd   int
	wakefd int
	raw    []unix.EpollEvent
	closed atomic.Bool
}

// NewPoller creates an epoll instance returning at most maxEvents per Wait.
func NewPoller(maxEvents int) (api.Poller, error) {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		_ = unix.Close(wakefd)
		_ = unix.Close(epfd)
		return nil, fmt.Errorf("epoll ctl add eventfd: %w", err)
	}
	return &epollPoller{
		epfd:   epfd,
		wakefd: wakefd,
		raw:    make([]unix.EpollEvent, maxEvents),
	}, nil
}

func toEpoll(mask api.EventMask) uint32 {
	var ev uint32
	if mask&api.EventRead != 0 {
		ev |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if mask&api.EventWrite != 0 {
		ev |= unix.EPOLLOUT
	}
	if mask&api.EventOneShot != 0 {
		ev |= unix.EPOLLONESHOT
	}
	return ev
}

func fromEpoll(ev uint32) api.EventMask {
	var mask api.EventMask
	if ev&(unix.EPOLLIN|unix.EPOLLRDHUP) != 0 {
		mask |= api.EventRead
	}
	if ev&unix.EPOLLOUT != 0 {
		mask |= api.EventWrite
	}
	if ev&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		mask |= api.EventError
	}
	return mask
}

func (p *epollPoller) ctl(op, fd int, mask api.EventMask) error {
	if p.closed.Load() {
		return ErrPollerClosed
	}
	if fd < 0 {
		return ErrBadDescriptor
	}
	ev := unix.EpollEvent{Events: toEpoll(mask), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, op, fd, &ev)
}

// Add registers fd with the given interest.
func (p *epollPoller) Add(fd int, mask api.EventMask) error {
	if err := p.ctl(unix.EPOLL_CTL_ADD, fd, mask); err != nil {
		return fmt.Errorf("epoll ctl add: %w", err)
	}
	return nil
}

// Mod replaces the interest of fd. With EventOneShot this re-arms it.
func (p *epollPoller) Mod(fd int, mask api.EventMask) error {
	if err := p.ctl(unix.EPOLL_CTL_MOD, fd, mask); err != nil {
		return fmt.Errorf("epoll ctl mod: %w", err)
	}
	return nil
}

// Del removes fd from the interest set.
func (p *epollPoller) Del(fd int) error {
	if p.closed.Load() {
		return ErrPollerClosed
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del: %w", err)
	}
	return nil
}

// Wait blocks until descriptors are ready, the timeout expires or Wake is called.
func (p *epollPoller) Wait(events []api.Event, timeout time.Duration) (int, error) {
	if p.closed.Load() {
		return 0, ErrPollerClosed
	}
	ms := -1
	if timeout >= 0 {
		ms = int((timeout + time.Millisecond - 1) / time.Millisecond)
	}
	raw := p.raw
	if len(events) < len(raw) {
		raw = raw[:len(events)]
	}
	n, err := unix.EpollWait(p.epfd, raw, ms)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil // interrupted by signal, normal
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}
	out := 0
	for i := 0; i < n; i++ {
		fd := int(raw[i].Fd)
		if fd == p.wakefd {
			p.drainWake()
			continue
		}
		events[out] = api.Event{Fd: fd, Mask: fromEpoll(raw[i].Events)}
		out++
	}
	return out, nil
}

func (p *epollPoller) drainWake() {
	var buf [8]byte
	for {
		if _, err := unix.Read(p.wakefd, buf[:]); err != unix.EINTR {
			return
		}
	}
}

// Wake interrupts a concurrent Wait. Safe for concurrent use.
func (p *epollPoller) Wake() error {
	if p.closed.Load() {
		return ErrPollerClosed
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	for {
		_, err := unix.Write(p.wakefd, buf[:])
		switch err {
		case nil, unix.EAGAIN:
			// EAGAIN: counter saturated, a wakeup is already pending
			return nil
		case unix.EINTR:
			continue
		default:
			return fmt.Errorf("eventfd write: %w", err)
		}
	}
}

// Close releases the epoll and eventfd descriptors.
func (p *epollPoller) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	werr := unix.Close(p.wakefd)
	if err := unix.Close(p.epfd); err != nil {
		return err
	}
	return werr
}
