package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/loganszeto/calcd-go/internal/protocol"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server address")
	timeout := flag.Duration("timeout", 5*time.Second, "dial and I/O timeout")
	flag.Parse()

	conn, err := net.DialTimeout("tcp", *addr, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	_ = conn.SetReadDeadline(time.Now().Add(*timeout))
	banner, err := protocol.ReadLine(reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read banner: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(banner)

	if flag.NArg() > 0 {
		line := strings.Join(flag.Args(), " ")
		out, err := send(conn, reader, writer, line, *timeout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "send: %v\n", err)
			os.Exit(1)
		}
		printOutcome(out)
		if out.Status != protocol.StatusOK {
			os.Exit(1)
		}
		return
	}

	repl(conn, reader, writer, *timeout)
}

func repl(conn net.Conn, reader *bufio.Reader, writer *bufio.Writer, timeout time.Duration) {
	in := bufio.NewReader(os.Stdin)
	connected := time.Now()
	sent := 0
	for {
		fmt.Print("> ")
		line, err := in.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "QUIT") || strings.EqualFold(line, "EXIT") {
			return
		}
		if strings.EqualFold(line, "HELP") {
			printHelp()
			continue
		}
		if strings.EqualFold(line, "STATUS") {
			fmt.Printf("connected to %s for %s, %d request(s) sent\n",
				conn.RemoteAddr(), time.Since(connected).Round(time.Second), sent)
			continue
		}
		// Catch malformed requests locally before spending a round trip.
		if _, err := protocol.ParseRequest(line); err != nil {
			fmt.Println("INVALID", err)
			continue
		}
		out, err := send(conn, reader, writer, line, timeout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "send: %v\n", err)
			return
		}
		sent++
		printOutcome(out)
		if out.Status == protocol.StatusServer {
			return
		}
	}
}

func send(conn net.Conn, reader *bufio.Reader, writer *bufio.Writer, line string, timeout time.Duration) (protocol.Outcome, error) {
	_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	if _, err := writer.WriteString(line + "\n"); err != nil {
		return protocol.Outcome{}, err
	}
	if err := writer.Flush(); err != nil {
		return protocol.Outcome{}, err
	}
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	return protocol.ReadResponse(reader)
}

func printOutcome(out protocol.Outcome) {
	if out.Status == protocol.StatusOK {
		fmt.Println(protocol.FormatNumber(out.Value))
		return
	}
	fmt.Println(string(out.Status), out.Message)
}

func printHelp() {
	fmt.Println("operations:")
	fmt.Println("  ADD a b   add two numbers")
	fmt.Println("  SUB a b   subtract b from a")
	fmt.Println("  MUL a b   multiply two numbers")
	fmt.Println("  DIV a b   divide a by b")
	fmt.Println("  POW a b   raise a to the power b")
	fmt.Println("  SQRT a    square root of a")
	fmt.Println("  STATUS    show session info")
	fmt.Println("  HELP      show this help")
	fmt.Println("  QUIT      close the session")
}
