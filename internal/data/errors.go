package data

import "errors"

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")

	ErrSelfRequest      = errors.New("cannot send a friend request to yourself")
	ErrRequestPending   = errors.New("friend request already pending")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrRequestInbound   = errors.New("this user has already sent you a request")
	ErrRequestNotFound  = errors.New("friend request not found")
	ErrNotReceiver      = errors.New("cannot respond to this friend request")
	ErrAlreadyResponded = errors.New("this request has already been responded to")
)
