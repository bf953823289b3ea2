//go:build tinygo

//go:generate tinygo flash -target=esp32-coreboard-v2

package main

import (
	"machine"
	"strconv"
	"time"
)

var (
	adcSensor machine.ADC
	uart      = machine.UART0

	// Serial buffer for reading lines
	serialBuffer [MAX_LINE]byte
	serialPos    int
	overflow     bool
)

func main() {
	// Buzzer off before anything else
	PIN_BUZZER.Configure(machine.PinConfig{Mode: machine.PinOutput})
	setBuzzer(false)

	machine.InitADC()
	PIN_SENSOR_ADC.Configure(machine.PinConfig{Mode: machine.PinInput})
	adcSensor = machine.ADC{Pin: PIN_SENSOR_ADC}
	adcSensor.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	for {
		processSerial()
		time.Sleep(100 * time.Microsecond)
	}
}

func processSerial() {
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		if data == '\n' || data == '\r' {
			if overflow {
				reply("ERR line too long")
			} else if serialPos > 0 {
				handleCommand(string(serialBuffer[:serialPos]))
			}
			serialPos = 0
			overflow = false
			continue
		}

		// Ignore whitespace
		if data == ' ' || data == '\t' {
			continue
		}

		if serialPos < len(serialBuffer) {
			serialBuffer[serialPos] = data
			serialPos++
		} else {
			overflow = true
		}
	}
}

func handleCommand(cmd string) {
	switch cmd {
	case "R":
		reply(strconv.Itoa(int(readRaw())))
	case "B1":
		setBuzzer(true)
		reply("OK")
	case "B0":
		setBuzzer(false)
		reply("OK")
	default:
		reply("ERR unknown command")
	}
}

// readRaw returns a single 12-bit sample. Averaging happens on the host.
func readRaw() uint16 {
	return adcSensor.Get() >> ADC_SHIFT
}

func setBuzzer(on bool) {
	if on {
		PIN_BUZZER.High()
	} else {
		PIN_BUZZER.Low()
	}
}

func reply(line string) {
	uart.Write([]byte(line))
	uart.Write([]byte("\r\n"))
}
