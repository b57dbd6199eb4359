// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package qdisc

import "container/list"

type classDrrEntry[T any, K comparable] struct {
	inner   Qdisc[T, K]
	deficit int
	quantum int
	inRing  bool
}

// Classifier picks a class id and the quantum that class should carry.
type Classifier[T any, K comparable, C comparable] func(ctx *PacketContext[T, K]) (C, int)

// ClassFactory lazily builds the inner qdisc for a newly observed class id.
type ClassFactory[T any, K comparable] func() Qdisc[T, K]

// ClassDrrQdisc runs Deficit Round Robin across dynamically classified
// classes of inner qdiscs, rather than across individual flows.
type ClassDrrQdisc[T any, K comparable, C comparable] struct {
	classes     map[C]*classDrrEntry[T, K]
	activeQueue *list.List

	classify Classifier[T, K, C]
	factory  ClassFactory[T, K]
}

// NewClassDrrQdisc builds a ClassDrrQdisc with the given classifier and
// inner-qdisc factory.
func NewClassDrrQdisc[T any, K comparable, C comparable](
	classify Classifier[T, K, C], factory ClassFactory[T, K],
) *ClassDrrQdisc[T, K, C] {
	return &ClassDrrQdisc[T, K, C]{
		classes:     make(map[C]*classDrrEntry[T, K]),
		activeQueue: list.New(),
		classify:    classify,
		factory:     factory,
	}
}

func (c *ClassDrrQdisc[T, K, C]) Enqueue(ctx PacketContext[T, K]) (PacketContext[T, K], bool) {
	classID, quantum := c.classify(&ctx)

	entry, ok := c.classes[classID]
	if !ok {
		entry = &classDrrEntry[T, K]{inner: c.factory(), deficit: quantum, quantum: quantum}
		c.classes[classID] = entry
	}
	entry.quantum = quantum

	_, hadHead := entry.inner.Peek()
	rejected, ok := entry.inner.Enqueue(ctx)
	if !ok {
		return rejected, false
	}

	if !hadHead && !entry.inRing {
		entry.inRing = true
		c.activeQueue.PushFront(classID)
	}
	return PacketContext[T, K]{}, true
}

func (c *ClassDrrQdisc[T, K, C]) prepareNextReadyClass() bool {
	for {
		front := c.activeQueue.Front()
		if front == nil {
			return false
		}
		classID := front.Value.(C)
		c.activeQueue.Remove(front)

		entry, ok := c.classes[classID]
		if !ok {
			continue
		}

		head, hasHead := entry.inner.Peek()
		if !hasHead {
			entry.inRing = false
			continue
		}

		if entry.deficit < head.Cost {
			entry.deficit += entry.quantum
			c.activeQueue.PushBack(classID)
			continue
		}

		c.activeQueue.PushFront(classID)
		return true
	}
}

func (c *ClassDrrQdisc[T, K, C]) Peek() (*PacketContext[T, K], bool) {
	if !c.prepareNextReadyClass() {
		return nil, false
	}
	front := c.activeQueue.Front()
	if front == nil {
		return nil, false
	}
	entry, ok := c.classes[front.Value.(C)]
	if !ok {
		return nil, false
	}
	return entry.inner.Peek()
}

func (c *ClassDrrQdisc[T, K, C]) Dequeue() (PacketContext[T, K], bool) {
	if !c.prepareNextReadyClass() {
		return PacketContext[T, K]{}, false
	}

	front := c.activeQueue.Front()
	if front == nil {
		return PacketContext[T, K]{}, false
	}
	classID := front.Value.(C)
	c.activeQueue.Remove(front)

	entry, ok := c.classes[classID]
	if !ok {
		return PacketContext[T, K]{}, false
	}

	ctx, ok := entry.inner.Dequeue()
	if !ok {
		entry.inRing = false
		return PacketContext[T, K]{}, false
	}
	entry.deficit -= ctx.Cost

	if _, hasMore := entry.inner.Peek(); hasMore {
		entry.inRing = true
		c.activeQueue.PushFront(classID)
	} else {
		entry.inRing = false
	}

	return ctx, true
}

func (c *ClassDrrQdisc[T, K, C]) CollectDropped() []PacketContext[T, K] {
	var all []PacketContext[T, K]
	for _, entry := range c.classes {
		all = append(all, entry.inner.CollectDropped()...)
	}
	return all
}
