package protocol

// Numeric replies used by the server (RFC 1459 / RFC 2812 names).
const (
	RplWelcome  = "001"
	RplYourHost = "002"
	RplCreated  = "003"
	RplMyInfo   = "004"

	RplUmodeIs          = "221"
	RplWhoisUser        = "311"
	RplWhoisServer      = "312"
	RplEndOfWho         = "315"
	RplEndOfWhois       = "318"
	RplWhoisChannels    = "319"
	RplChannelModeIs    = "324"
	RplNoTopic          = "331"
	RplTopic            = "332"
	RplWhoReply         = "352"
	RplNamReply         = "353"
	RplEndOfNames       = "366"
	ErrNoSuchNick       = "401"
	ErrNoSuchChannel    = "403"
	ErrNoOrigin         = "409"
	ErrNoRecipient      = "411"
	ErrNoTextToSend     = "412"
	ErrInputTooLong     = "417"
	ErrNoNicknameGiven  = "431"
	ErrErroneusNickname = "432"
	ErrNicknameInUse    = "433"
	ErrNotOnChannel     = "442"
	ErrNotRegistered    = "451"
	ErrNeedMoreParams   = "461"
	ErrAlreadyRegistred = "462"
	ErrPasswdMismatch   = "464"
	ErrUsersDontMatch   = "502"
)
