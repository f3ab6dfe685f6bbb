// Package ecs provides ECS adapters for touchtrail's finger notifications.
//
// The primary adapter is [NewDonburiSink], which bridges finger down, move,
// and up notifications into a [Donburi] world as typed events. Subscribe to
// [FingerEventType] in your ECS systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	ctx.SetFingerSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
