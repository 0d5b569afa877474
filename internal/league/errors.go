package league

import "errors"

var (
	ErrRoundLocked          = errors.New("round is locked")
	ErrRoundNotLocked       = errors.New("round has not locked yet")
	ErrTeamAlreadyUsed      = errors.New("team already picked in a previous round")
	ErrInvalidFixture       = errors.New("fixture or team does not match the round")
	ErrNotParticipant       = errors.New("not an active participant in this competition")
	ErrNotOrganiser         = errors.New("only the organiser may do this")
	ErrResultFrozen         = errors.New("result is frozen: picks have already been resolved against it")
	ErrLockTimeFrozen       = errors.New("lock time is frozen: outcomes have been resolved for this round")
	ErrRoundUnapplied       = errors.New("previous round has not been fully applied")
	ErrCompetitionComplete  = errors.New("competition is complete")
	ErrCompetitionSetup     = errors.New("competition is still being set up")
	ErrInvalidInviteCode    = errors.New("invalid invite code")
	ErrTeamNotInCompetition = errors.New("team does not belong to this competition")
	ErrAlreadyJoined        = errors.New("already a member of this competition")
	ErrJoinClosed           = errors.New("competition no longer accepts new players")
	ErrNotCurrentRound      = errors.New("not the current round")
	ErrLockTimeInPast       = errors.New("lock time must be in the future")
	ErrInvalidResult        = errors.New("result must be home, away or draw")
)
