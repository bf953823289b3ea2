//go:build tinygo

package main

import "machine"

const (
	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Supply/reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)
	ADC_SHIFT        = 16 - ADC_RESOLUTION

	// MQ135 analog output (ADC1 channel 6)
	PIN_SENSOR_ADC = machine.GPIO34

	// Active buzzer, high = on
	PIN_BUZZER = machine.GPIO23

	// Serial configuration
	// Replies are at most a 4 digit reading or a short error line per command,
	// one command per host cycle.
	UART_BAUD_RATE = 115200

	// Longest accepted command line
	MAX_LINE = 16
)
