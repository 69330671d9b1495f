package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gauravsingh786/peerchat/internal/client"
	"github.com/gauravsingh786/peerchat/internal/config"
	"github.com/gauravsingh786/peerchat/internal/logging"
	"github.com/gauravsingh786/peerchat/internal/peer"
)

var (
	flagServerURL string
	flagRoom      string
	flagName      string
	flagVideoFile string
	flagAudioFile string
	flagJoinLevel string
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join a room as a peer",
	Long: `Join a named room on the relay and negotiate a direct media session with
the other participant. When no room id is given the server generates one.

Outgoing media comes from sample files (--video-file takes VP8 in IVF,
--audio-file takes Opus in Ogg). Without media flags the peer joins
receive-only and still answers incoming offers.

While joined, stdin lines are relayed as chat. Commands:
  /audio on|off    toggle the outgoing audio track
  /video on|off    toggle the outgoing video track
  /share <file>    substitute outgoing video with an IVF screen capture
  /unshare         restore the camera track
  /quit            leave the room`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagName == "" {
			return fmt.Errorf("a display name is required (--name)")
		}
		return runJoin()
	},
}

func init() {
	joinCmd.Flags().StringVar(&flagServerURL, "server", "", "relay websocket URL (default ws://localhost:8080/ws)")
	joinCmd.Flags().StringVar(&flagRoom, "room", "", "room id (server generates one when empty)")
	joinCmd.Flags().StringVar(&flagName, "name", "", "display name shown to other participants")
	joinCmd.Flags().StringVar(&flagVideoFile, "video-file", "", "IVF file used as the camera track")
	joinCmd.Flags().StringVar(&flagAudioFile, "audio-file", "", "Ogg file used as the microphone track")
	joinCmd.Flags().StringVar(&flagJoinLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(joinCmd)
}

func runJoin() error {
	cfg, err := config.Load(config.Options{
		ServerURL: flagServerURL,
		LogLevel:  flagJoinLevel,
	})
	if err != nil {
		return err
	}
	logging.Init(cfg.LogLevel)

	c := client.NewClient(cfg.ServerURL)
	if err := c.Connect(); err != nil {
		return err
	}
	defer c.Close()

	h := client.NewHandler(c.Incoming())
	go h.Start()

	c.JoinRoom(flagRoom, flagName)
	roomID := <-h.RoomJoined
	fmt.Printf("joined room %s\n", roomID)

	media := newCmdMediaSource()
	factory := peer.NewPionFactory(cfg)

	newSession := func() *peer.Session {
		s := peer.NewSession(roomID, media, factory, c)
		s.OnStateChange = func(state peer.State) {
			logrus.WithField("state", state.String()).Info("peer session")
		}
		return s
	}

	session := newSession()
	if flagVideoFile != "" || flagAudioFile != "" {
		if err := session.Join(); err != nil {
			// Media failure is local-only and recoverable; stay in the
			// room and keep answering offers.
			logrus.WithError(err).Error("could not start local media")
		}
	}

	input := make(chan string, 4)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			input <- scanner.Text()
		}
		close(input)
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	for {
		select {
		case name := <-h.UserJoined:
			fmt.Printf("%s joined the room\n", name)
			if session.State() == peer.Closed {
				// Closed is terminal; a newly arrived participant gets a
				// fresh session.
				session = newSession()
				if flagVideoFile != "" || flagAudioFile != "" {
					if err := session.Join(); err != nil {
						logrus.WithError(err).Error("could not restart local media")
					}
				}
			}
			if err := session.HandleUserJoined(name); err != nil {
				logrus.WithError(err).Error("failed to initiate negotiation")
			}

		case name := <-h.UserLeft:
			fmt.Printf("%s left the room\n", name)
			session.HandleUserLeft(name)

		case msg := <-h.Chat:
			fmt.Printf("%s: %s\n", msg.Name, msg.Body)

		case sig := <-h.Offer:
			if err := session.HandleOffer(sig.Payload); err != nil {
				logrus.WithError(err).Error("failed to handle offer")
			}

		case sig := <-h.Answer:
			if err := session.HandleAnswer(sig.Payload); err != nil {
				logrus.WithError(err).Error("failed to handle answer")
			}

		case sig := <-h.ICECandidate:
			if err := session.HandleICECandidate(sig.Payload); err != nil {
				logrus.WithError(err).Error("failed to handle candidate")
			}

		case line, ok := <-input:
			if !ok || line == "/quit" {
				leave(c, session, roomID)
				return nil
			}
			handleInput(c, session, roomID, line)

		case <-interrupt:
			leave(c, session, roomID)
			return nil
		}
	}
}

func handleInput(c *client.Client, session *peer.Session, roomID, line string) {
	switch {
	case line == "":

	case line == "/audio on":
		session.SetAudioEnabled(true)
	case line == "/audio off":
		session.SetAudioEnabled(false)
	case line == "/video on":
		session.SetVideoEnabled(true)
	case line == "/video off":
		session.SetVideoEnabled(false)

	case strings.HasPrefix(line, "/share "):
		flagScreenFile = strings.TrimSpace(strings.TrimPrefix(line, "/share "))
		if err := session.ShareScreen(); err != nil {
			logrus.WithError(err).Error("failed to start screen share")
		}
	case line == "/unshare":
		if err := session.StopScreenShare(); err != nil {
			logrus.WithError(err).Error("failed to stop screen share")
		}

	default:
		c.SendChat(roomID, flagName, line)
	}
}

func leave(c *client.Client, session *peer.Session, roomID string) {
	c.LeaveRoom(roomID, flagName)
	session.Close()
}

// flagScreenFile holds the IVF path for the current screen share. It is set
// by the /share command right before AcquireScreen reads it.
var flagScreenFile string

func newCmdMediaSource() *peer.SampleMediaSource {
	src := &peer.SampleMediaSource{}
	if flagAudioFile != "" {
		src.OpenMic = func() (peer.SampleSource, error) {
			return peer.NewOggSource(flagAudioFile)
		}
	}
	if flagVideoFile != "" {
		src.OpenCamera = func() (peer.SampleSource, error) {
			return peer.NewIVFSource(flagVideoFile)
		}
	}
	src.OpenScreen = func() (peer.SampleSource, error) {
		if flagScreenFile == "" {
			return nil, fmt.Errorf("no screen capture file given")
		}
		return peer.NewIVFSource(flagScreenFile)
	}
	return src
}
