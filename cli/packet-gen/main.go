package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/daniil11ru/itms/libs/itms"
)

/*
Генератор сообщений ITMS-850.

Собирает полезную нагрузку смарт-комбо датчика из параметров, заворачивает ее
в JSON-конверт шлюза и публикует в топик MQTT-брокера.

Usage:
  -server string
    	Адрес MQTT-брокера (default "tcp://localhost:1883")
  -topic string
    	Топик для публикации (обязательно)
  -cmd int
    	Код команды (default 1)
  -pressure int
    	Давление, отрицательное значение выставляет флаг знака
  -diff-pressure int
    	Дифференциальное давление
  -temperature float
    	Температура, две цифры после запятой
  -temp-sign
    	Флаг знака температуры
  -voltage, -current, -power, -active-power int
    	Электрические показания
  -ai1, -ai2 int
    	Аналоговые входы
  -di int
    	Маска дискретных входов, бит 0 = DI1 ... бит 3 = DI4
  -mac string
    	Добавить в конверт ключ mac (сообщение BLE-датчика)
  -dry-run
    	Только вывести конверт
  -timeout int
    	Время ожидания подтверждения в секундах, по умолчанию 5

Example

```
./packet-gen -topic aerix/itms850 -pressure -500 -temperature 23.5 -di 10 -server tcp://localhost:1883
```
*/

func main() {
	var (
		server       string
		topic        string
		cmd          uint
		pressure     int
		diffPressure uint
		temperature  float64
		tempSign     bool
		voltage      uint
		current      uint
		power        uint
		activePower  uint
		ai1          uint
		ai2          uint
		di           uint
		mac          string
		dryRun       bool
		ackTimeout   int
	)

	flag.StringVar(&server, "server", "tcp://localhost:1883", "Адрес MQTT-брокера")
	flag.StringVar(&topic, "topic", "", "Топик для публикации (обязательно)")
	flag.UintVar(&cmd, "cmd", itms.CommandMeasurement, "Код команды")
	flag.IntVar(&pressure, "pressure", 0, "Давление")
	flag.UintVar(&diffPressure, "diff-pressure", 0, "Дифференциальное давление")
	flag.Float64Var(&temperature, "temperature", 0, "Температура")
	flag.BoolVar(&tempSign, "temp-sign", false, "Флаг знака температуры")
	flag.UintVar(&voltage, "voltage", 0, "Напряжение")
	flag.UintVar(&current, "current", 0, "Ток")
	flag.UintVar(&power, "power", 0, "Мощность")
	flag.UintVar(&activePower, "active-power", 0, "Активная мощность")
	flag.UintVar(&ai1, "ai1", 0, "Аналоговый вход 1")
	flag.UintVar(&ai2, "ai2", 0, "Аналоговый вход 2")
	flag.UintVar(&di, "di", 0, "Маска дискретных входов DI1..DI4")
	flag.StringVar(&mac, "mac", "", "Ключ mac для конверта BLE-датчика")
	flag.BoolVar(&dryRun, "dry-run", false, "Только вывести конверт")
	flag.IntVar(&ackTimeout, "timeout", 5, "Время ожидания подтверждения в секундах")

	flag.Parse()

	if topic == "" && !dryRun {
		fmt.Println("Требуется топик, смотрите помощь (-h)")
		os.Exit(1)
	}
	if cmd > 0xFF || di > 0x0F ||
		pressure < -0xFFFF || pressure > 0xFFFF ||
		ai1 > 0xFFFF || ai2 > 0xFFFF || diffPressure > 0xFFFF || voltage > 0xFFFF ||
		current > 0xFFFFFFFF || power > 0xFFFFFFFF || activePower > 0xFFFFFFFF {
		fmt.Println("Значение параметра вне допустимого диапазона, смотрите помощь (-h)")
		os.Exit(1)
	}

	m := itms.Measurement{
		Command:              uint8(cmd),
		TemperatureSign:      tempSign,
		DigitalInput1:        di&0x01 != 0,
		DigitalInput2:        di&0x02 != 0,
		DigitalInput3:        di&0x04 != 0,
		DigitalInput4:        di&0x08 != 0,
		AnalogInput1:         uint16(ai1),
		AnalogInput2:         uint16(ai2),
		DifferentialPressure: uint16(diffPressure),
		Pressure:             int32(pressure),
		Temperature:          temperature,
		Voltage:              uint16(voltage),
		Current:              uint32(current),
		Power:                uint32(power),
		ActivePower:          uint32(activePower),
	}

	message, err := BuildEnvelope(&m, mac)
	if err != nil {
		fmt.Println("Ошибка кодирования сообщения: ", err)
		os.Exit(1)
	}

	if dryRun {
		fmt.Println(string(message))
		os.Exit(0)
	}

	timeout := time.Duration(ackTimeout) * time.Second
	opts := mqtt.NewClientOptions().
		AddBroker(server).
		SetClientID(fmt.Sprintf("itms-packet-gen-%d", time.Now().UnixNano())).
		SetConnectTimeout(timeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) || token.Error() != nil {
		fmt.Println("Ошибка соединения: ", token.Error())
		os.Exit(1)
	}
	defer client.Disconnect(250)

	token = client.Publish(topic, 1, false, message)
	if !token.WaitTimeout(timeout) {
		fmt.Println("Истекло время ожидания подтверждения публикации")
		os.Exit(1)
	}
	if err := token.Error(); err != nil {
		fmt.Println("Ошибка публикации: ", err)
		os.Exit(1)
	}

	fmt.Println("Сообщение опубликовано: ", string(message))
}
