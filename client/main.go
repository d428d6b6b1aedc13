package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mahaj/harmonium/pkg/bridge"
	"github.com/mahaj/harmonium/pkg/model"
	"github.com/olekukonko/tablewriter"
)

// view mirrors what the web UI shows.
type view struct {
	mu       sync.Mutex
	channels []model.Channel
	current  *model.Channel
}

func (v *view) apply(out io.Writer, evt model.Event) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch evt.Name {
	case model.EventAddChannel:
		var channel model.Channel
		if err := evt.Decode(&channel); err != nil {
			return err
		}
		if v.upsert(channel) {
			fmt.Fprintf(out, "\r%s\n> ", color.Cyan.Sprintf("+ #%s (%d)", channel.Name, channel.ID))
		}

	case model.EventSetCurrentChannel:
		var selection model.ChannelSelection
		if err := evt.Decode(&selection); err != nil {
			return err
		}
		v.upsert(selection.Channel)
		v.current = &selection.Channel
		fmt.Fprintf(out, "\r%s\n", color.Green.Sprintf("== %s # %d ==", selection.Channel.Name, selection.Channel.ID))
		for _, m := range selection.Messages {
			fmt.Fprintf(out, "%d: %s\n", m.AuthorID, m.Content)
		}
		fmt.Fprint(out, "> ")

	case model.EventAddMessage:
		var message model.Message
		if err := evt.Decode(&message); err != nil {
			return err
		}
		for i := range v.channels {
			if v.channels[i].ID == message.ChannelID && !slices.Contains(v.channels[i].Messages, message.ID) {
				v.channels[i].Messages = append(v.channels[i].Messages, message.ID)
			}
		}
		if v.current != nil && v.current.ID == message.ChannelID {
			fmt.Fprintf(out, "\r%d: %s\n> ", message.AuthorID, message.Content)
		}

	case model.EventError:
		var payload model.ErrorPayload
		if err := evt.Decode(&payload); err != nil {
			return err
		}
		fmt.Fprintf(out, "\r%s\n> ", color.Red.Sprintf("error: %s", payload.Message))
	}
	return nil
}

// upsert replaces the channel in place or appends it. It reports whether the
// channel is new.
func (v *view) upsert(channel model.Channel) bool {
	for i, c := range v.channels {
		if c.ID == channel.ID {
			v.channels[i] = channel.Clone()
			return false
		}
	}
	v.channels = append(v.channels, channel.Clone())
	return true
}

func (v *view) render(out io.Writer) {
	v.mu.Lock()
	defer v.mu.Unlock()

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Channel", "Messages", ""})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, c := range v.channels {
		marker := ""
		if v.current != nil && v.current.ID == c.ID {
			marker = "*"
		}
		table.Append([]string{c.ID.String(), c.Name, strconv.Itoa(len(c.Messages)), marker})
	}
	table.Render()
}

type frameWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// sender serialises writes: the stdin loop and the interrupt handler share one
// connection, which allows a single concurrent writer.
type sender struct {
	mu   sync.Mutex
	conn frameWriter
}

func (s *sender) selectChannel(channelID uint64) error {
	args, err := json.Marshal(bridge.ChannelSelectArgs{ID: &channelID})
	if err != nil {
		return fmt.Errorf("encode channel_select: %w", err)
	}
	frame, err := json.Marshal(bridge.Command{Cmd: bridge.CmdChannelSelect, Args: args})
	if err != nil {
		return fmt.Errorf("encode channel_select: %w", err)
	}
	return s.write(websocket.TextMessage, frame)
}

func (s *sender) close() error {
	return s.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *sender) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

// parseSelect accepts "/select <id>" or a bare channel id.
func parseSelect(line string) (uint64, bool) {
	line = strings.TrimSpace(strings.TrimPrefix(line, "/select"))
	raw, err := strconv.ParseUint(line, 10, 64)
	return raw, err == nil
}

func main() {
	serverAddr := flag.String("addr", "127.0.0.1:1420", "shell address")
	token := flag.String("token", os.Getenv("HARMONIUM_TOKEN"), "bridge token printed by the shell")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *serverAddr, Path: "/ws"}
	log.Printf("connecting to %s", u.String())

	header := http.Header{}
	header.Add("Authorization", "Bearer "+*token)
	c, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	v := &view{}
	out := &sender{conn: c}
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			_, frame, err := c.ReadMessage()
			if err != nil {
				log.Println("read:", err)
				return
			}
			var evt model.Event
			if err := json.Unmarshal(frame, &evt); err != nil {
				log.Printf("Received raw: %s", frame)
				continue
			}
			if err := v.apply(os.Stdout, evt); err != nil {
				log.Printf("bad %s event: %v", evt.Name, err)
			}
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Print("> ")
		for scanner.Scan() {
			text := scanner.Text()
			switch {
			case text == "":
			case text == "/quit":
				interrupt <- os.Interrupt
				return
			case text == "/channels":
				v.render(os.Stdout)
			default:
				channelID, ok := parseSelect(text)
				if !ok {
					fmt.Println(color.Yellow.Sprint("usage: /select <id> | /channels | /quit"))
					break
				}
				if err := out.selectChannel(channelID); err != nil {
					log.Println("write:", err)
					return
				}
			}
			fmt.Print("> ")
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		log.Println("interrupt")
		// Cleanly close the connection by sending a close message and then
		// waiting (with timeout) for the server to close the connection.
		if err := out.close(); err != nil {
			log.Println("write close:", err)
			return
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}
