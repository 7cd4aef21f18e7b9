package bno08x

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/angelatrigg/FTC6302-Skystone/pkg/angle"
)

const DefaultSerialDevice = "/dev/ttyAMA0"

const ReportFrequency = 100
const ReportInterval = time.Second / ReportFrequency

const packetLen = 19

var header = []byte{0xaa, 0xaa}

type IMUReport struct {
	Time   time.Time
	Index  uint8
	Yaw    int16
	Pitch  int16
	Roll   int16
	XAccel int16
	YAccel int16
	ZAccel int16
}

func (i IMUReport) String() string {
	return fmt.Sprintf("[%02x] Y:%7.2f P:%7.2f R:%7.2f X:%7.2f Y:%7.2f Z:%7.2f",
		i.Index, float64(i.Yaw)/100.0, float64(i.Pitch)/100.0, float64(i.Roll)/100.0,
		float64(i.XAccel)/100.0, float64(i.YAccel)/100.0, float64(i.ZAccel)/100.0)
}

func (i IMUReport) YawDegrees() float64 {
	return (float64(i.Yaw)) / 100.0
}

// BNO08X reads the UART-RVC report stream of a BNO08x.
type BNO08X struct {
	device string
	clock  clock.Clock
	logger *zap.SugaredLogger

	lock       sync.Mutex
	lastReport IMUReport

	cancel context.CancelFunc
	done   chan struct{}
}

func New(device string, clk clock.Clock, logger *zap.SugaredLogger) *BNO08X {
	return &BNO08X{
		device: device,
		clock:  clk,
		logger: logger,
	}
}

func (b *BNO08X) CurrentReport() IMUReport {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.lastReport
}

// Heading returns the latest yaw, anti-clockwise positive. It is 0 until the
// first report arrives.
func (b *BNO08X) Heading() float64 {
	return angle.FromFloat(b.CurrentReport().YawDegrees()).Float()
}

// Start reads reports in the background until Close.
func (b *BNO08X) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	b.done = make(chan struct{})
	go func() {
		defer close(b.done)
		b.LoopReadingReports(ctx)
	}()
}

func (b *BNO08X) Close() error {
	if b.cancel != nil {
		b.cancel()
		<-b.done
	}
	return nil
}

func (b *BNO08X) LoopReadingReports(ctx context.Context) {
	for ctx.Err() == nil {
		err := b.openAndLoop(ctx)
		if ctx.Err() != nil {
			return
		}
		b.logger.Warnw("BNO08X loop stopped; will retry", "error", err)
		select {
		case <-ctx.Done():
		case <-b.clock.After(100 * time.Millisecond):
		}
	}
}

func (b *BNO08X) openAndLoop(ctx context.Context) error {
	mode := &serial.Mode{
		BaudRate: 115200,
	}
	s, err := serial.Open(b.device, mode)
	if err != nil {
		return errors.Wrapf(err, "failed to open serial port %s", b.device)
	}
	defer s.Close()
	// Unblock the read when we're asked to stop.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-stop:
		}
	}()
	return b.readReports(ctx, s)
}

// readReports decodes packets from r until an error.
func (b *BNO08X) readReports(ctx context.Context, r io.Reader) error {
	br := bufio.NewReader(r)
resync:
	b.logger.Debug("BNO08X resync...")
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		buf, err := br.Peek(2)
		if err != nil {
			return errors.Wrap(err, "failed to read from serial")
		}
		if bytes.Equal(buf, header) {
			break
		}
		_, err = br.Discard(1)
		if err != nil {
			return errors.Wrap(err, "failed to read from serial")
		}
	}
	b.logger.Debug("BNO08X in sync with packet stream")

	buf := make([]byte, packetLen)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, err := io.ReadFull(br, buf)
		if err != nil {
			return errors.Wrap(err, "failed to read from serial")
		}
		if !bytes.Equal(buf[:2], header) {
			b.logger.Warn("BNO08X lost sync")
			goto resync
		}
		var checksum uint8
		for _, c := range buf[2 : packetLen-1] {
			checksum += c
		}
		if buf[packetLen-1] != checksum {
			b.logger.Warnw("BNO08X bad checksum", "got", buf[packetLen-1], "want", checksum)
			goto resync
		}
		var report IMUReport
		report.Time = b.clock.Now()
		report.Index = buf[2]
		report.Yaw = int16(binary.LittleEndian.Uint16(buf[3:5]))
		report.Pitch = int16(binary.LittleEndian.Uint16(buf[5:7]))
		report.Roll = int16(binary.LittleEndian.Uint16(buf[7:9]))
		report.XAccel = int16(binary.LittleEndian.Uint16(buf[9:11]))
		report.YAccel = int16(binary.LittleEndian.Uint16(buf[11:13]))
		report.ZAccel = int16(binary.LittleEndian.Uint16(buf[13:15]))
		b.setReport(report)
	}
}

func (b *BNO08X) setReport(report IMUReport) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.lastReport = report
}
