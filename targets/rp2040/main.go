//go:build rp2040

package main

import (
	"machine"
	"time"

	"stepperhub/config"
	"stepperhub/core"
	"stepperhub/protocol"
	"stepperhub/targets/pio"
)

var (
	// Buffers for communication
	inputBuffer *protocol.FifoBuffer
	txBuffer    *protocol.TxBuffer
	transport   *protocol.Transport
	usb         *usbPort

	// Debug counters
	requestsReceived uint32
	msgerrors        uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	usb = InitUSB()
	UpdateSystemTime()

	cfg := config.DefaultConfig()
	cfg.ClockHz = ClockHz
	cfg.IdleFlushMS = 50

	txBuffer = protocol.NewTxBuffer(1024)
	core.SetDebugWriter(func(msg string) {
		txBuffer.Write([]byte(msg))
	})
	core.InitAsyncDebug()

	reg := core.NewRegistry(cfg.Motion())
	reg.SetArrivalHandler(func(name byte, pos int32) {
		txBuffer.Write([]byte(core.ArrivalMessage(name, pos)))
	})

	sched := core.DefaultScheduler()
	for _, ac := range cfg.Axes {
		backend, err := pio.NewBackend(sched, ac)
		if err != nil {
			core.DebugPrintln("[INIT] axis " + ac.Name + ": " + err.Error() + "\r\n")
			continue
		}
		if err := reg.SetupPeripherals(ac.Label(), backend); err != nil {
			core.DebugPrintln("[INIT] axis " + ac.Name + ": " + err.Error() + "\r\n")
		}
	}

	reg.SetConfigStore(config.NewFlashStore(cfg.MaxAxes))
	if err := reg.LoadConfig(); err != nil {
		core.DebugPrintln("[CONFIG] load failed: " + err.Error() + "\r\n")
	}

	decoder, err := protocol.NewDecoder(reg, protocol.NewExecutor(reg, txBuffer))
	if err != nil {
		core.DebugPrintln("[INIT] " + err.Error() + "\r\n")
		return
	}
	transport = protocol.NewTransport(decoder)
	transport.SetIdleFlush(cfg.IdleFlushTicks())
	transport.SetFaultCallback(func(v interface{}) {
		msgerrors++
		txBuffer.Write(protocol.AppendError(nil, protocol.ResultDecoderFault))
	})

	inputBuffer = protocol.NewFifoBuffer(256)

	core.NewControlLoop(sched, reg).Start()

	// Start USB reader goroutine
	go usbReaderLoop()

	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					inputBuffer.Reset()
				}
			}()

			UpdateSystemTime()
			now := core.GetTime()

			if inputBuffer.Available() > 0 {
				transport.Receive(inputBuffer, now)
				requestsReceived++
			}
			transport.Poll(now)

			// Pulse timers and the control tick
			core.ProcessTimers()

			writeUSB()
		}()

		// Yield to the reader goroutine
		time.Sleep(10 * time.Microsecond)
	}
}

// usbReaderLoop runs in a goroutine to continuously read USB data
func usbReaderLoop() {
	// Recover from panics to prevent a firmware crash
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()

	for {
		if usb.Buffered() > 0 {
			data, err := usb.ReadByte()
			if err != nil {
				msgerrors++
				time.Sleep(1 * time.Millisecond)
				continue
			}

			// A new host session starts with clean buffers
			if usb.reconnected() {
				inputBuffer.Reset()
				transport.Reset()
			}

			if inputBuffer.Write([]byte{data}) == 0 {
				// Buffer full - error condition
				msgerrors++
				time.Sleep(10 * time.Millisecond)
			}
		}
		// Yield to avoid a busy loop
		time.Sleep(100 * time.Microsecond)
	}
}

// writeUSB sends queued responses. Output for a host that stopped reading
// is discarded.
func writeUSB() {
	if len(txBuffer.Pending()) == 0 {
		return
	}
	if _, err := txBuffer.WriteTo(usb); err != nil && usb.disconnected {
		txBuffer.Consume(len(txBuffer.Pending()))
	}
}
